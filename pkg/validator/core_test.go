package validator_test

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/callgate/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.MinNum("age", 20, 18),
			validator.MaxLen("name", "jane", 10),
			validator.ValidEmail("email", "jane@example.com"),
		)
		assert.NoError(t, err)
	})

	t.Run("collects failures", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.MinNum("age", 10, 18),
			validator.MinLen("name", "", 1),
			validator.ValidEmail("email", "nope"),
		)
		require.Error(t, err)
		require.True(t, validator.IsValidationError(err))

		errs := validator.ExtractValidationErrors(err)
		assert.Len(t, errs, 3)
		assert.True(t, errs.Has("email"))
		assert.Equal(t, []string{"must be greater than or equal to 18"}, errs.Get("age"))
		assert.Contains(t, err.Error(), "validation failed: age:")
	})

	t.Run("wrapped errors are extracted", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("wrap: %w", validator.Apply(validator.MaxNum("n", 5, 1)))
		assert.Len(t, validator.ExtractValidationErrors(err), 1)
		assert.False(t, validator.IsValidationError(errors.New("plain")))
		assert.Nil(t, validator.ExtractValidationErrors(nil))
	})
}

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule validator.Rule
		ok   bool
	}{
		{"integer", validator.Integer("n", 3), true},
		{"fraction", validator.Integer("n", 3.5), false},
		{"runes counted", validator.MaxLen("s", "ñññ", 3), true},
		{"min items", validator.MinItems("a", []any{1}, 2), false},
		{"max items", validator.MaxItems("a", []any{1, 2}, 2), true},
		{"email display name rejected", validator.ValidEmail("e", "Jane <jane@example.com>"), false},
		{"email without dot", validator.ValidEmail("e", "jane@localhost"), false},
		{"uuid", validator.ValidUUID("id", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"), true},
		{"uuid braces", validator.ValidUUID("id", "{6ba7b810-9dad-11d1-80b4-00c04fd430c8}"), false},
		{"regex", validator.MatchesRegex("s", "abc", regexp.MustCompile(`^[a-z]+$`), "lowercase"), true},
		{"one of", validator.OneOf("s", "x", []string{"a", "b"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.ok, tt.rule.Check())
		})
	}
}
