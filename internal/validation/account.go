package validation

import (
	"strings"

	"github.com/advisorkit/portfolio-backend/internal/api/request"
)

// ValidateCreateAccount validates an account creation request.
// Only the name is required; broker and number are free-form display fields.
func ValidateCreateAccount(req request.CreateAccountRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateAccount validates an account update request.
// Fields are optional but may not be blanked out.
func ValidateUpdateAccount(req request.UpdateAccountRequest) error {
	errors := make(map[string]string)

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errors["name"] = "name cannot be empty"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
