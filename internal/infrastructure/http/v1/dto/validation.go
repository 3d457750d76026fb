package dto

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"invoicer/internal/domain/auth"
)

// RegisterValidators installs the custom binding rules on gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return registerRules(v)
}

func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return auth.IsStrongPassword(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register strongpassword: %w", err)
	}
	if err := v.RegisterValidation("uuid4or7", func(fl validator.FieldLevel) bool {
		return isUUID4or7(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register uuid4or7: %w", err)
	}
	return nil
}

// isUUID4or7 accepts random (v4) and time-ordered (v7) UUIDs.
func isUUID4or7(s string) bool {
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Version() == 4 || u.Version() == 7
}
