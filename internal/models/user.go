package models

import "time"

// Role is the access level carried inside signed claims.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an application user account.
type User struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	Email           string    `bson:"email" json:"email"`
	Username        *string   `bson:"username,omitempty" json:"username"`
	Password        string    `bson:"password" json:"-"`
	Role            Role      `bson:"role" json:"role"`
	IsActive        bool      `bson:"isActive" json:"isActive"`
	IsEmailVerified bool      `bson:"isEmailVerified" json:"isEmailVerified"`
	IsProfilePublic bool      `bson:"isProfilePublic" json:"isProfilePublic"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}
