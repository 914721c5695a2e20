package middleware

import (
	"reflect"
	"strings"

	"github.com/backoffice/receiving/internal/domain/receiving"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures the binding validator with custom tags
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// "disposition" accepts only the operator disposition vocabulary
	_ = v.RegisterValidation("disposition", func(fl validator.FieldLevel) bool {
		return receiving.Disposition(fl.Field().String()).IsValid()
	})
}
