package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/service"
)

func validUserForm() domain.UserForm {
	return domain.UserForm{
		Name:            "Marie Kavira",
		Email:           " Marie@Ecole.cd ",
		Role:            "Accountant",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Schools:         []string{"primaire", "Secondaire"},
	}
}

func TestCreateUser(t *testing.T) {
	store := &mockUserStore{}
	svc := service.NewUserService(store, zap.NewNop())

	u, err := svc.Create(context.Background(), validUserForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "marie@ecole.cd" || u.Role != domain.RoleAccountant {
		t.Errorf("unexpected user %+v", u)
	}
	if got := store.created[0].Schools; got[0] != "Primaire" || got[1] != "Secondaire" {
		t.Errorf("expected normalized schools, got %v", got)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.UserForm)
		field  string
	}{
		{"short name", func(f *domain.UserForm) { f.Name = "M" }, "name"},
		{"bad email", func(f *domain.UserForm) { f.Email = "marie" }, "email"},
		{"unknown role", func(f *domain.UserForm) { f.Role = "director" }, "role"},
		{"no password", func(f *domain.UserForm) { f.Password, f.ConfirmPassword = "", "" }, "password"},
		{"short password", func(f *domain.UserForm) { f.Password, f.ConfirmPassword = "abc", "abc" }, "password"},
		{"mismatch", func(f *domain.UserForm) { f.ConfirmPassword = "other1" }, "confirmPassword"},
		{"unknown school", func(f *domain.UserForm) { f.Schools = []string{"Université"} }, "schools[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockUserStore{}
			svc := service.NewUserService(store, zap.NewNop())
			form := validUserForm()
			tt.mutate(&form)

			_, err := svc.Create(context.Background(), form)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ve.Field)
			}
			if len(store.created) != 0 {
				t.Error("invalid user reached the backend")
			}
		})
	}
}

func TestUpdateUser_PasswordOptional(t *testing.T) {
	svc := service.NewUserService(&mockUserStore{}, zap.NewNop())
	form := validUserForm()
	form.Password, form.ConfirmPassword = "", ""

	u, err := svc.Update(context.Background(), "u1", form)
	if err != nil || u.ID != "u1" {
		t.Fatalf("unexpected result %+v, %v", u, err)
	}
}

func TestDeleteUser_NotSelf(t *testing.T) {
	store := &mockUserStore{}
	svc := service.NewUserService(store, zap.NewNop())
	admin := &domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin}

	err := svc.Delete(context.Background(), admin, "admin-1")
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := svc.Delete(context.Background(), admin, "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "u2" {
		t.Errorf("unexpected deletions %v", store.deleted)
	}
}

func TestValidateAccessToken(t *testing.T) {
	svc := service.NewAuthService("test-secret", zap.NewNop())

	token, err := svc.SignAccessToken("u1", domain.RoleAccountant, []string{"Primaire"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	p, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.UserID != "u1" || p.Role != domain.RoleAccountant || p.Token != token {
		t.Errorf("unexpected principal %+v", p)
	}
	if !p.CanAccessSchool(domain.SchoolPrimaire) || p.CanAccessSchool(domain.SchoolSecondaire) {
		t.Errorf("unexpected school access for %v", p.Schools)
	}
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	svc := service.NewAuthService("test-secret", zap.NewNop())
	other := service.NewAuthService("other-secret", zap.NewNop())

	expired, _ := svc.SignAccessToken("u1", domain.RoleAdmin, nil, -time.Minute)
	foreign, _ := other.SignAccessToken("u1", domain.RoleAdmin, nil, time.Hour)
	refresh, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, service.JWTClaims{
		Sub:  "u1",
		Type: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))

	for name, token := range map[string]string{
		"expired": expired,
		"foreign": foreign,
		"refresh": refresh,
		"garbage": "not-a-token",
	} {
		_, err := svc.ValidateAccessToken(token)
		var unauthorized *domain.ErrUnauthorized
		if !errors.As(err, &unauthorized) {
			t.Errorf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}
}
