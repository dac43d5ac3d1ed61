package service_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/cache"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/service"
)

// --- Mocks ---

type mockRateStore struct {
	rate    *domain.ExchangeRate
	err     error
	gets    atomic.Int32
	updates atomic.Int32
}

func (m *mockRateStore) GetExchangeRate(_ context.Context) (*domain.ExchangeRate, error) {
	m.gets.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if m.rate == nil {
		return nil, nil
	}
	r := *m.rate
	return &r, nil
}

func (m *mockRateStore) UpdateExchangeRate(_ context.Context, v float64) (*domain.ExchangeRate, error) {
	m.updates.Add(1)
	m.rate = &domain.ExchangeRate{USDToSecondary: v, UpdatedAt: time.Now()}
	return m.rate, nil
}

type mockStudentStore struct {
	profiles []domain.StudentPaymentProfile
	err      error
	gets     atomic.Int32
}

func (m *mockStudentStore) QueryStudentPayments(_ context.Context, _ string, _ url.Values) (*domain.StudentPage, error) {
	return nil, errors.New("not used")
}

func (m *mockStudentStore) ListAllStudentPayments(_ context.Context, _, _ string) ([]domain.StudentPaymentProfile, error) {
	return m.profiles, m.err
}

func (m *mockStudentStore) GetStudentPayment(_ context.Context, _, studentID, _ string) (*domain.StudentPaymentProfile, error) {
	m.gets.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.profiles {
		if m.profiles[i].ID == studentID {
			p := m.profiles[i]
			return &p, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "student", ID: studentID}
}

type mockPaymentStore struct {
	mu      sync.Mutex
	created []*domain.PaymentRecord
	keys    []string
	result  *domain.CreatedPayment
	err     error
}

func (m *mockPaymentStore) CreatePayment(_ context.Context, rec *domain.PaymentRecord, key string) (*domain.CreatedPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, rec)
	m.keys = append(m.keys, key)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockPaymentStore) VerifyPayment(_ context.Context, id string) (*domain.Payment, error) {
	return &domain.Payment{ID: id, Status: "completed"}, nil
}

func (m *mockPaymentStore) CancelPayment(_ context.Context, id, notes string) (*domain.Payment, error) {
	return &domain.Payment{ID: id, Status: "cancelled", Notes: notes}, nil
}

func (m *mockPaymentStore) ListStudentPayments(_ context.Context, _, _ string) ([]domain.Payment, error) {
	return []domain.Payment{}, nil
}

func (m *mockPaymentStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

type mockYearStore struct {
	years   []domain.SchoolYear
	active  *domain.SchoolYear
	err     error
	payload *domain.SchoolYearPayload
}

func (m *mockYearStore) ListSchoolYears(_ context.Context) ([]domain.SchoolYear, error) {
	return m.years, m.err
}

func (m *mockYearStore) GetActiveSchoolYear(_ context.Context) (*domain.SchoolYear, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.active == nil {
		return nil, &domain.ErrNotFound{Resource: "school year", ID: "active"}
	}
	return m.active, nil
}

func (m *mockYearStore) CreateSchoolYear(_ context.Context, p *domain.SchoolYearPayload) (*domain.SchoolYear, error) {
	m.payload = p
	return &domain.SchoolYear{ID: "new-year", Name: p.SchoolYear.YearLabel}, nil
}

func (m *mockYearStore) GetTuitionTotal(_ context.Context, className, yearID string) (*domain.TuitionTotal, error) {
	return &domain.TuitionTotal{ClassName: className, SchoolYearID: yearID, Total: 300}, nil
}

type mockPrefsStore struct {
	prefs map[string]*domain.Preferences
	err   error
}

func (m *mockPrefsStore) GetPreferences(_ context.Context, userID string) (*domain.Preferences, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.prefs[userID], nil
}

func (m *mockPrefsStore) SavePreferences(_ context.Context, p *domain.Preferences) error {
	if m.err != nil {
		return m.err
	}
	if m.prefs == nil {
		m.prefs = map[string]*domain.Preferences{}
	}
	cp := *p
	m.prefs[p.UserID] = &cp
	return nil
}

type mockSchoolStore struct {
	structure *domain.SchoolStructure
	classes   []domain.Class
	students  []domain.Student
	created   []domain.NewStudentRequest
	classAdds []domain.Class
	failOn    string
	gets      atomic.Int32
}

func (m *mockSchoolStore) GetStructure(_ context.Context, _ string) (*domain.SchoolStructure, error) {
	m.gets.Add(1)
	return m.structure, nil
}

func (m *mockSchoolStore) ListClasses(_ context.Context, _ string) ([]domain.Class, error) {
	return m.classes, nil
}

func (m *mockSchoolStore) CreateClass(_ context.Context, c *domain.Class) (*domain.Class, error) {
	m.classAdds = append(m.classAdds, *c)
	out := *c
	out.ID = "class-new"
	return &out, nil
}

func (m *mockSchoolStore) ListStudents(_ context.Context, _, _ string) ([]domain.Student, error) {
	return m.students, nil
}

func (m *mockSchoolStore) CreateStudent(_ context.Context, req *domain.NewStudentRequest) (*domain.Student, error) {
	if m.failOn != "" && req.Name == m.failOn {
		return nil, &domain.ErrExternalService{Service: "students", Err: errors.New("boom")}
	}
	m.created = append(m.created, *req)
	return &domain.Student{ID: "st-new", Name: req.Name, Class: req.Class, School: req.School}, nil
}

type mockDashboardStore struct {
	stats *domain.DashboardStats
	err   error
}

func (m *mockDashboardStore) GetDashboardStats(_ context.Context, _, _ string, _, _ int) (*domain.DashboardStats, error) {
	return m.stats, m.err
}

type mockUserStore struct {
	created []domain.UserForm
	deleted []string
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]domain.User, error) {
	return []domain.User{}, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, f *domain.UserForm) (*domain.User, error) {
	m.created = append(m.created, *f)
	return &domain.User{ID: "u-new", Name: f.Name, Email: f.Email, Role: f.Role}, nil
}

func (m *mockUserStore) UpdateUser(_ context.Context, id string, f *domain.UserForm) (*domain.User, error) {
	return &domain.User{ID: id, Name: f.Name, Email: f.Email, Role: f.Role}, nil
}

func (m *mockUserStore) DeleteUser(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

// --- Fixtures ---

func sampleProfile() domain.StudentPaymentProfile {
	return domain.StudentPaymentProfile{
		ID:     "s1",
		Name:   "Amani Kabila",
		Class:  "3e HTS",
		School: "Secondaire",
		Option: "Social",
		Trimesters: []domain.TermPayment{
			{Term: domain.Term1, TuitionDue: 100, AmountPaid: 100, Status: domain.StatusPaid},
			{Term: domain.Term2, TuitionDue: 100, AmountPaid: 40, Status: domain.StatusPending},
			{Term: domain.Term3, TuitionDue: 100, AmountPaid: 0, Status: domain.StatusPending},
		},
		ExtraFees: []domain.ExtraFeeCharge{
			{ID: "fee-uniform", Name: "Uniforme", AmountDue: 25, AmountPaid: 10, Status: domain.StatusPending},
		},
	}
}

func newRateService(store *mockRateStore, metrics *observability.Metrics) *service.ExchangeRateService {
	return service.NewExchangeRateService(store, cache.New[*domain.ExchangeRate](time.Minute), metrics, zap.NewNop())
}

func rateStore(v float64) *mockRateStore {
	return &mockRateStore{rate: &domain.ExchangeRate{USDToSecondary: v, UpdatedAt: time.Now()}}
}
