package handlers

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

var validate = validator.New()

func validateStruct(payload any) error {
	if err := validate.Struct(payload); err != nil {
		details := map[string]any{}
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range fieldErrs {
				details[fieldErr.Field()] = fieldErr.Tag()
			}
		}
		return apperrors.NewValidationError("invalid payload", details)
	}
	return nil
}
