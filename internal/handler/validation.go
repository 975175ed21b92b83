package handler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// oneOf validates a string field against the space separated values of the tag
// parameter, e.g. `binding:"oneOf=owner editor viewer"`.
func oneOf(fl validator.FieldLevel) bool {
	allowed := strings.Fields(fl.Param())
	return slices.Contains(allowed, fl.Field().String())
}

// RegisterValidation hooks the custom validators into gin's binding validator. Must be
// called once before the engine serves requests.
func RegisterValidation() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("error getting validation engine")
	}
	return v.RegisterValidation("oneOf", oneOf)
}
