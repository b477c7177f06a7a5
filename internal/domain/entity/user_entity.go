package entity

import (
	"time"
)

// User is the aggregate root for the registration domain.
// JSON names follow the public API consumed by the browser UI.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"nombre"`
	Email        string    `json:"correo"`
	Age          int       `json:"edad"`
	ProfileImage string    `json:"imagenPerfil"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Name         *string
	Email        *string
	Age          *int
	ProfileImage *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Age == nil && p.ProfileImage == nil
}

// Apply returns a copy of u with the patch merged in.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	return u
}
