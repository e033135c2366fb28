package validator

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// e164Pattern matches international phone numbers in E.164 form, which is the
// canonical format for WhatsApp recipients.
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}

func MinLenString(field, value string, min int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) >= min
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters long", min)},
	}
}

func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", max)},
	}
}

// ValidUUID validates that the value parses as a UUID. Empty values pass;
// combine with RequiredString when the field is mandatory.
func ValidUUID(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			_, err := uuid.Parse(value)
			return err == nil
		},
		Error: ValidationError{Field: field, Message: "must be a valid UUID"},
	}
}

// PhoneE164 validates an international phone number such as "+6281234567890".
func PhoneE164(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			return e164Pattern.MatchString(value)
		},
		Error: ValidationError{Field: field, Message: "must be a phone number in E.164 format"},
	}
}

// InChoice validates that the value is one of the allowed options.
func InChoice[T comparable](field string, value T, allowed []T) Rule {
	return Rule{
		Check: func() bool {
			return slices.Contains(allowed, value)
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be one of the allowed values %v", allowed)},
	}
}

// FutureTime validates that the value is after now. Zero values pass.
func FutureTime(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool {
			if value.IsZero() {
				return true
			}
			return value.After(time.Now())
		},
		Error: ValidationError{Field: field, Message: "must be in the future"},
	}
}

// PastDate validates a date of birth style value: non-zero and not in the future.
func PastDate(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool {
			if value.IsZero() {
				return true
			}
			return value.Before(time.Now())
		},
		Error: ValidationError{Field: field, Message: "must be in the past"},
	}
}
