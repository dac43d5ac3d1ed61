package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

var userTracer = otel.Tracer("service/users")

// UserService manages staff accounts.
type UserService struct {
	store  port.UserStore
	logger *zap.Logger
}

// NewUserService creates the user service.
func NewUserService(store port.UserStore, logger *zap.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// List returns every staff account.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.List")
	defer span.End()

	return s.store.ListUsers(ctx)
}

// Create validates form and creates the account. A password is mandatory.
func (s *UserService) Create(ctx context.Context, form domain.UserForm) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.Create")
	defer span.End()

	form = normalizeUserForm(form)
	if form.Password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: "is required"}
	}
	if err := validateStruct(form); err != nil {
		return nil, err
	}

	u, err := s.store.CreateUser(ctx, &form)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", zap.String("email", form.Email), zap.String("role", string(form.Role)))
	return u, nil
}

// Update validates form and updates the account. An empty password keeps
// the current one.
func (s *UserService) Update(ctx context.Context, userID string, form domain.UserForm) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	form = normalizeUserForm(form)
	if err := validateStruct(form); err != nil {
		return nil, err
	}
	return s.store.UpdateUser(ctx, userID, &form)
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor *domain.Principal, userID string) error {
	ctx, span := userTracer.Start(ctx, "UserService.Delete")
	defer span.End()

	if actor != nil && actor.UserID == userID {
		return &domain.ErrForbidden{Action: "delete own account"}
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", zap.String("user_id", userID))
	return nil
}

func normalizeUserForm(f domain.UserForm) domain.UserForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Role = domain.Role(strings.ToLower(string(f.Role)))
	schools := make([]string, 0, len(f.Schools))
	for _, sc := range f.Schools {
		if st, ok := domain.ParseSchool(sc); ok {
			sc = st.Title()
		}
		schools = append(schools, sc)
	}
	f.Schools = schools
	return f
}
