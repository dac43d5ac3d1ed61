package domain

// ============================================================
// Users & roles
// ============================================================

// Role is the access level of a staff user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleAccountant Role = "accountant"
)

// User is a staff account as returned by the backend.
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     Role     `json:"role"`
	IsActive bool     `json:"isActive"`
	Schools  []string `json:"schools,omitempty"`
}

// UserForm is the body for creating or updating a user.
// Password fields are optional on update.
type UserForm struct {
	Name            string   `json:"name" validate:"required,min=2,max=100"`
	Email           string   `json:"email" validate:"required,email"`
	Role            Role     `json:"role" validate:"required,oneof=admin teacher accountant"`
	Password        string   `json:"password,omitempty" validate:"omitempty,min=6"`
	ConfirmPassword string   `json:"confirmPassword,omitempty" validate:"eqfield=Password"`
	Schools         []string `json:"schools,omitempty" validate:"dive,oneof=Maternelle Primaire Secondaire"`
	IsActive        *bool    `json:"isActive,omitempty"`
}

// Principal is the authenticated caller, extracted from the access token.
type Principal struct {
	UserID  string
	Role    Role
	Schools []string
	Token   string
}

// CanAccessSchool reports whether the principal may read the given school.
// Admins and principals without an explicit school list see every school.
func (p *Principal) CanAccessSchool(school SchoolType) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin || len(p.Schools) == 0 {
		return true
	}
	for _, s := range p.Schools {
		if got, ok := ParseSchool(s); ok && got == school {
			return true
		}
	}
	return false
}
