package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// MinNum validates that a numeric value is greater than or equal to the minimum.
func MinNum[T Numeric](field string, value, min T) Rule {
	return Rule{
		Check: func() bool { return value >= min },
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("must be greater than or equal to %v", min),
			TranslationKey:    "validation.min",
			TranslationValues: map[string]any{"field": field, "min": min},
		},
	}
}

// MaxNum validates that a numeric value is less than or equal to the maximum.
func MaxNum[T Numeric](field string, value, max T) Rule {
	return Rule{
		Check: func() bool { return value <= max },
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("must be less than or equal to %v", max),
			TranslationKey:    "validation.max",
			TranslationValues: map[string]any{"field": field, "max": max},
		},
	}
}

// Integer requires a whole number.
func Integer(field string, value float64) Rule {
	return Rule{
		Check: func() bool { return value == float64(int64(value)) },
		Error: ValidationError{
			Field:             field,
			Message:           "must be an integer",
			TranslationKey:    "validation.integer",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// MinLen counts runes.
func MinLen(field, value string, min int) Rule {
	return Rule{
		Check: func() bool { return len([]rune(value)) >= min },
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("length must be at least %d characters long", min),
			TranslationKey:    "validation.min_length",
			TranslationValues: map[string]any{"field": field, "min": min},
		},
	}
}

// MaxLen counts runes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len([]rune(value)) <= max },
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("length must be less than or equal to %d characters long", max),
			TranslationKey:    "validation.max_length",
			TranslationValues: map[string]any{"field": field, "max": max},
		},
	}
}

// MinItems requires at least min elements.
func MinItems[T any](field string, value []T, min int) Rule {
	return Rule{
		Check: func() bool { return len(value) >= min },
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("must contain at least %d items", min),
			TranslationKey:    "validation.min_items",
			TranslationValues: map[string]any{"field": field, "min": min},
		},
	}
}

// MaxItems allows at most max elements.
func MaxItems[T any](field string, value []T, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("must contain less than or equal to %d items", max),
			TranslationKey:    "validation.max_items",
			TranslationValues: map[string]any{"field": field, "max": max},
		},
	}
}

// ValidEmail accepts a bare addr-spec whose domain has at least one dot.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}
			local, domain, ok := strings.Cut(addr.Address, "@")
			if !ok || local == "" || !strings.Contains(domain, ".") {
				return false
			}
			for part := range strings.SplitSeq(domain, ".") {
				if part == "" {
					return false
				}
			}
			return true
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must be a valid email",
			TranslationKey:    "validation.email",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// ValidUUID accepts the canonical 36 character form only.
func ValidUUID(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if len(value) != 36 {
				return false
			}
			_, err := uuid.Parse(value)
			return err == nil
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must be a valid GUID",
			TranslationKey:    "validation.uuid",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// MatchesRegex requires value to match re; description names the format in the message.
func MatchesRegex(field, value string, re *regexp.Regexp, description string) Rule {
	return Rule{
		Check: func() bool { return re.MatchString(value) },
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must match the %s pattern", description),
			TranslationKey: "validation.regex_pattern",
			TranslationValues: map[string]any{
				"field":       field,
				"pattern":     re.String(),
				"description": description,
			},
		},
	}
}

// OneOf requires value to be one of allowed.
func OneOf[T comparable](field string, value T, allowed []T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: ValidationError{
			Field:             field,
			Message:           fmt.Sprintf("must be one of %v", allowed),
			TranslationKey:    "validation.in_list",
			TranslationValues: map[string]any{"field": field, "allowed_values": allowed},
		},
	}
}
