package schoolapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// ListUsers lists staff accounts.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "users", "/users", nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// userPayload is what the backend accepts: the confirmation is checked here.
type userPayload struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	Password string   `json:"password,omitempty"`
	Schools  []string `json:"schools,omitempty"`
	IsActive *bool    `json:"isActive,omitempty"`
}

func toUserPayload(f *domain.UserForm) userPayload {
	return userPayload{
		Name:     f.Name,
		Email:    f.Email,
		Role:     string(f.Role),
		Password: f.Password,
		Schools:  f.Schools,
		IsActive: f.IsActive,
	}
}

// CreateUser creates a staff account.
func (c *Client) CreateUser(ctx context.Context, form *domain.UserForm) (*domain.User, error) {
	var u domain.User
	if err := c.send(ctx, "users", http.MethodPost, "/users", toUserPayload(form), &u, nil); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser updates a staff account.
func (c *Client) UpdateUser(ctx context.Context, userID string, form *domain.UserForm) (*domain.User, error) {
	var u domain.User
	if err := c.send(ctx, "users", http.MethodPut, "/users/"+url.PathEscape(userID), toUserPayload(form), &u, nil); err != nil {
		return nil, err
	}
	if u.ID == "" {
		u.ID = userID
	}
	return &u, nil
}

// DeleteUser removes a staff account.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.send(ctx, "users", http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil, nil)
}

func itoa(n int) string { return strconv.Itoa(n) }
