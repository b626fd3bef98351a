package models

import "fmt"

// Role gates which records are visible and which actions are offered.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a raw string to a Role. Empty input yields the default role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleFarmer, nil
	case RoleFarmer, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

// Identity is the signed-in principal plus its role.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity may use the admin surface.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// UserRecord is the backing document in the users collection, keyed by UID.
type UserRecord struct {
	UID       string `json:"uid" bson:"uid"`
	Name      string `json:"name" bson:"name"`
	Email     string `json:"email" bson:"email"`
	Role      Role   `json:"role" bson:"role"`
	CreatedAt string `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}
