// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from the school backend client and the preferences stores.
package port

import (
	"context"
	"net/url"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, bool, error)
}

// ExchangeRateStore reads and updates the school's exchange rate.
type ExchangeRateStore interface {
	GetExchangeRate(ctx context.Context) (*domain.ExchangeRate, error)
	UpdateExchangeRate(ctx context.Context, usdToSecondary float64) (*domain.ExchangeRate, error)
}

// StudentPaymentStore reads the per-student payment read model.
type StudentPaymentStore interface {
	// QueryStudentPayments returns one backend-filtered page.
	QueryStudentPayments(ctx context.Context, school string, query url.Values) (*domain.StudentPage, error)
	// ListAllStudentPayments returns every profile of a school for a year.
	ListAllStudentPayments(ctx context.Context, school, schoolYearID string) ([]domain.StudentPaymentProfile, error)
	GetStudentPayment(ctx context.Context, school, studentID, schoolYearID string) (*domain.StudentPaymentProfile, error)
}

// PaymentStore records payments and forwards lifecycle transitions.
type PaymentStore interface {
	// CreatePayment must issue exactly one request.
	CreatePayment(ctx context.Context, rec *domain.PaymentRecord, idempotencyKey string) (*domain.CreatedPayment, error)
	VerifyPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	CancelPayment(ctx context.Context, paymentID, notes string) (*domain.Payment, error)
	ListStudentPayments(ctx context.Context, studentID, schoolYearID string) ([]domain.Payment, error)
}

// SchoolYearStore reads and creates school years.
type SchoolYearStore interface {
	ListSchoolYears(ctx context.Context) ([]domain.SchoolYear, error)
	GetActiveSchoolYear(ctx context.Context) (*domain.SchoolYear, error)
	CreateSchoolYear(ctx context.Context, payload *domain.SchoolYearPayload) (*domain.SchoolYear, error)
	GetTuitionTotal(ctx context.Context, className, schoolYearID string) (*domain.TuitionTotal, error)
}

// SchoolStore covers school structure, classes and students.
type SchoolStore interface {
	GetStructure(ctx context.Context, school string) (*domain.SchoolStructure, error)
	ListClasses(ctx context.Context, school string) ([]domain.Class, error)
	CreateClass(ctx context.Context, class *domain.Class) (*domain.Class, error)
	ListStudents(ctx context.Context, school, class string) ([]domain.Student, error)
	CreateStudent(ctx context.Context, req *domain.NewStudentRequest) (*domain.Student, error)
}

// DashboardStore reads aggregated statistics.
type DashboardStore interface {
	GetDashboardStats(ctx context.Context, school, schoolYearID string, page, limit int) (*domain.DashboardStats, error)
}

// UserStore manages staff accounts.
type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, form *domain.UserForm) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, form *domain.UserForm) (*domain.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// SchoolBackend is the whole remote API as seen by the BFA.
type SchoolBackend interface {
	ExchangeRateStore
	StudentPaymentStore
	PaymentStore
	SchoolYearStore
	SchoolStore
	DashboardStore
	UserStore
	Ping(ctx context.Context) error
}

// PreferencesStore keeps per-user session preferences. Implementations
// return (nil, nil) when the user has no stored preferences.
type PreferencesStore interface {
	GetPreferences(ctx context.Context, userID string) (*domain.Preferences, error)
	SavePreferences(ctx context.Context, prefs *domain.Preferences) error
}
