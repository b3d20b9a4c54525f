package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks the struct tags of e and reports the first violation in
// field declaration order.
func Validate(e Entity) error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return err
	}
	fe := fes[0]
	switch fe.Tag() {
	case "required":
		return &MissingFieldError{Field: fe.Field()}
	case "max":
		return &InvalidError{Msg: fe.Field() + " longer than " + fe.Param() + " characters"}
	}
	return &InvalidError{Msg: fe.Field() + ": validation failed on " + fe.Tag()}
}
