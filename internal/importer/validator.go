package importer

import (
	"fmt"
	"regexp"
)

// ErrorCode identifies a row-scoped validation failure.
type ErrorCode string

const (
	ErrMissingName        ErrorCode = "MISSING_NAME"
	ErrMissingPhone       ErrorCode = "MISSING_PHONE"
	ErrInvalidPhoneFormat ErrorCode = "INVALID_PHONE_FORMAT"
)

// ValidationError describes one rule a row failed. Row-scoped and non-fatal:
// the row is excluded from persistence but stays visible in the preview.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// localPhonePattern accepts normalized local numbers: a leading zero
// followed by 8 to 10 digits.
var localPhonePattern = regexp.MustCompile(`^0\d{8,10}$`)

// Validate checks a normalized row against all row rules independently and
// returns every applicable error, not just the first. An empty result means
// the row may be persisted.
func Validate(row NormalizedRow) []ValidationError {
	var errs []ValidationError

	if row.Name == "" {
		errs = append(errs, ValidationError{
			Code:    ErrMissingName,
			Message: "customer name is required",
		})
	}

	if row.Phone == "" {
		errs = append(errs, ValidationError{
			Code:    ErrMissingPhone,
			Message: "phone number is required",
		})
	} else if !localPhonePattern.MatchString(row.Phone) {
		errs = append(errs, ValidationError{
			Code:    ErrInvalidPhoneFormat,
			Message: fmt.Sprintf("phone %q must start with 0 followed by 8-10 digits", row.Phone),
		})
	}

	return errs
}
