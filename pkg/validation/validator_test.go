package validation

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

type userForm struct {
	Name  string `form:"nombre" binding:"required,nombre"`
	Email string `form:"correo" binding:"required,email"`
	Age   *int   `form:"edad" binding:"required,edad"`
}

func TestToDetails(t *testing.T) {
	Init()

	age := 200
	err := binding.Validator.ValidateStruct(&userForm{Name: "Ana", Email: "no-es-correo", Age: &age})
	details := ToDetails(err)
	assert.Equal(t, map[string]string{
		"correo": "debe ser un correo válido",
		"edad":   "debe estar entre 0 y 150",
	}, details)

	err = binding.Validator.ValidateStruct(&userForm{})
	details = ToDetails(err)
	assert.Equal(t, "es obligatorio", details["nombre"])
	assert.Equal(t, "es obligatorio", details["correo"])
	assert.Equal(t, "es obligatorio", details["edad"])
}

func TestFormRulesMatchEntityLimits(t *testing.T) {
	Init()

	age := entity.MaxAge
	name := strings.Repeat("ñ", entity.MaxNameLength)
	assert.NoError(t, binding.Validator.ValidateStruct(&userForm{Name: name, Email: "a@b.co", Age: &age}))

	age++
	err := binding.Validator.ValidateStruct(&userForm{Name: name + "x", Email: "a@b.co", Age: &age})
	assert.Equal(t, map[string]string{
		"nombre": entity.NameTooLongMessage,
		"edad":   entity.AgeRangeMessage,
	}, ToDetails(err))
}

func TestToDetailsDecodeErrors(t *testing.T) {
	_, convErr := strconv.Atoi("treinta")
	assert.Equal(t, map[string]string{"edad": "debe ser un número entero"}, ToDetails(convErr))
	assert.Equal(t, map[string]string{"formulario": "datos no válidos"}, ToDetails(errors.New("x")))
	assert.Nil(t, ToDetails(nil))
}
