package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole process.
var validate = NewValidator()

// NewValidator returns a validator that knows the custom tags used on
// types.Student:
//
//	nocr  the string holds no carriage return
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("nocr", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), '\r')
	})
	return v
}

// Validate checks a record against the store invariants and returns an
// *Error of kind ErrMissingField, ErrMalformedInput or ErrInvalidAge, in
// that order of precedence.
func Validate(op string, student types.Student) error {
	err := validate.Struct(student)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%s: validate: %w", op, err)
	}

	var badText, badAge validator.FieldError
	for _, fe := range fieldErrs {
		switch {
		case fe.Tag() == "required":
			return &Error{
				Op:   op,
				ID:   student.ID,
				Kind: ErrMissingField,
				Err:  fmt.Errorf("field %s is required", fe.Field()),
			}
		case fe.Tag() == "nocr":
			if badText == nil {
				badText = fe
			}
		case fe.Field() == "Age":
			badAge = fe
		}
	}

	if badText != nil {
		return &Error{
			Op:   op,
			ID:   student.ID,
			Kind: ErrMalformedInput,
			Err:  fmt.Errorf("field %s contains a carriage return", badText.Field()),
		}
	}

	return &Error{
		Op:   op,
		ID:   student.ID,
		Kind: ErrInvalidAge,
		Err:  fmt.Errorf("%v is outside 1..100", badAge.Value()),
	}
}
