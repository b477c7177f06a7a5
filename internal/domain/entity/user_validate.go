package entity

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/go-user-registry/internal/domain/apperror"
)

const (
	MaxNameLength = 100
	MaxAge        = 150
)

// Validator rules and their messages, shared with form binding.
var (
	NameRule = fmt.Sprintf("max=%d", MaxNameLength)
	AgeRule  = fmt.Sprintf("gte=0,lte=%d", MaxAge)

	NameTooLongMessage = fmt.Sprintf("no puede superar %d caracteres", MaxNameLength)
	AgeRangeMessage    = fmt.Sprintf("debe estar entre 0 y %d", MaxAge)
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims whitespace and lower-cases the email in place.
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.ProfileImage = strings.TrimSpace(u.ProfileImage)
}

// Validate checks field presence and shape. requireImage is false while
// a record is being merged during an update.
func (u *User) Validate(requireImage bool) error {
	details := map[string]string{}
	if err := validate.Var(u.Name, "required,"+NameRule); err != nil {
		if u.Name == "" {
			details["nombre"] = "es obligatorio"
		} else {
			details["nombre"] = NameTooLongMessage
		}
	}
	if err := validate.Var(u.Email, "required,email"); err != nil {
		if u.Email == "" {
			details["correo"] = "es obligatorio"
		} else {
			details["correo"] = "debe ser un correo válido"
		}
	}
	if err := validate.Var(u.Age, AgeRule); err != nil {
		details["edad"] = AgeRangeMessage
	}
	if requireImage && u.ProfileImage == "" {
		details["imagenPerfil"] = "es obligatorio"
	}
	if len(details) > 0 {
		return apperror.NewValidation("Datos inválidos", details)
	}
	return nil
}
