package whitelist

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Tag is the struct tag used on transport fields, e.g. `binding:"required,whitelist=DESC"`.
const Tag = "whitelist"

func validateField(fl validator.FieldLevel) bool {
	return Match(fl.Param(), fl.Field().String())
}

// jsonName reports fields by their JSON name so error keys match the request body.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Register installs the whitelist tag on v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)
	return v.RegisterValidation(Tag, validateField)
}

// RegisterWithGin installs the whitelist tag on gin's default binding validator.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return Register(v)
}

// ErrorCode returns the whitelist error code for a failed validation tag, falling back
// to the tag itself for other constraints (e.g. "required").
func ErrorCode(fe validator.FieldError) string {
	if fe.Tag() == Tag {
		if e := Get(fe.Param()); e.Error != "" {
			return e.Error
		}
	}
	return fe.Tag()
}
