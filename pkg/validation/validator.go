package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

// Init configures the global validator used by Gin's binding.
// - Uses form tag names (falling back to json) in errors.
// - Registers alias tags for the user form.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
		v.RegisterAlias("edad", entity.AgeRule)
		v.RegisterAlias("nombre", entity.NameRule)
	}
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// ToDetails converts validation/binding errors into a map[field]message suitable for the detalles object.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Non-numeric edad and friends fail in the form decoder, before validation
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return map[string]string{"edad": "debe ser un número entero"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"formulario": "datos no válidos"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "email":
		return "debe ser un correo válido"
	case "edad":
		return entity.AgeRangeMessage
	case "nombre":
		return entity.NameTooLongMessage
	case "min":
		if isNumberKind(fe.Kind()) {
			return "debe ser al menos " + param
		}
		return "debe tener al menos " + param + " caracteres"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "no puede superar " + param
		}
		return "no puede superar " + param + " caracteres"
	case "gte":
		return "debe ser mayor o igual a " + param
	case "lte":
		return "debe ser menor o igual a " + param
	case "uuid":
		return "debe ser un UUID válido"
	default:
		if param != "" {
			return "no cumple la regla '" + fe.Tag() + "=" + param + "'"
		}
		return "no cumple la regla '" + fe.Tag() + "'"
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
