package dto

import (
	"github.com/go-playground/validator/v10"

	"mentorlink/backend/internal/academic"
)

// RegisterValidators adds the custom binding tags used by the request DTOs.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("period_name", validatePeriodName)
}

// validatePeriodName accepts "JULY-DECEMBER 2024" / "JANUARY-JUNE 2025" in any case.
func validatePeriodName(fl validator.FieldLevel) bool {
	_, _, err := academic.ParsePeriodName(academic.NormalizePeriodName(fl.Field().String()))
	return err == nil
}
