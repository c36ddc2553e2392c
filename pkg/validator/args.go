package validator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the JSON type an argument must have.
type Kind int

const (
	KindAny Kind = iota
	KindNumber
	KindString
	KindBool
	KindObject
	KindArray
)

var kindMessages = map[Kind]string{
	KindNumber: "must be a number",
	KindString: "must be a string",
	KindBool:   "must be a boolean",
	KindObject: "must be of type object",
	KindArray:  "must be an array",
}

// Arg describes one positional call argument. Build it with Number, String,
// Bool, Object, Array or Any and chain constraints:
//
//	validator.Number().Min(1).Label("count")
//	validator.String().Email().Optional()
//
// Constraints that do not apply to the kind are ignored.
type Arg struct {
	kind     Kind
	label    string
	optional bool
	nullable bool
	checks   []func(field string, v any) Rule
}

// Schema builders, one per argument kind.
func Any() *Arg    { return &Arg{kind: KindAny} }
func Number() *Arg { return &Arg{kind: KindNumber} }
func String() *Arg { return &Arg{kind: KindString} }
func Bool() *Arg   { return &Arg{kind: KindBool} }
func Object() *Arg { return &Arg{kind: KindObject} }
func Array() *Arg  { return &Arg{kind: KindArray} }

// Kind returns the expected argument type.
func (a *Arg) Kind() Kind { return a.kind }

// Label names the argument in error messages.
func (a *Arg) Label(label string) *Arg {
	a.label = label
	return a
}

// Optional lets the argument be omitted.
func (a *Arg) Optional() *Arg {
	a.optional = true
	return a
}

// Nullable accepts an explicit null.
func (a *Arg) Nullable() *Arg {
	a.nullable = true
	return a
}

// Min bounds numbers by value, strings by rune count and arrays by length.
func (a *Arg) Min(n float64) *Arg {
	return a.with(func(field string, v any) Rule {
		switch val := v.(type) {
		case float64:
			return MinNum(field, val, n)
		case string:
			return MinLen(field, val, int(n))
		case []any:
			return MinItems(field, val, int(n))
		}
		return pass()
	})
}

// Max bounds numbers by value, strings by rune count and arrays by length.
func (a *Arg) Max(n float64) *Arg {
	return a.with(func(field string, v any) Rule {
		switch val := v.(type) {
		case float64:
			return MaxNum(field, val, n)
		case string:
			return MaxLen(field, val, int(n))
		case []any:
			return MaxItems(field, val, int(n))
		}
		return pass()
	})
}

// Integer rejects fractional numbers.
func (a *Arg) Integer() *Arg {
	return a.with(func(field string, v any) Rule {
		if f, ok := v.(float64); ok {
			return Integer(field, f)
		}
		return pass()
	})
}

// Email requires strings to be email addresses.
func (a *Arg) Email() *Arg {
	return a.withString(ValidEmail)
}

// UUID requires strings to be UUIDs.
func (a *Arg) UUID() *Arg {
	return a.withString(ValidUUID)
}

// Pattern requires strings to match re. It panics on an invalid expression.
func (a *Arg) Pattern(expr, description string) *Arg {
	re := regexp.MustCompile(expr)
	return a.withString(func(field, s string) Rule {
		return MatchesRegex(field, s, re, description)
	})
}

// Valid restricts strings to the given values.
func (a *Arg) Valid(values ...string) *Arg {
	return a.withString(func(field, s string) Rule {
		return OneOf(field, s, values)
	})
}

func (a *Arg) with(fn func(field string, v any) Rule) *Arg {
	a.checks = append(a.checks, fn)
	return a
}

func (a *Arg) withString(fn func(field, value string) Rule) *Arg {
	return a.with(func(field string, v any) Rule {
		if s, ok := v.(string); ok {
			return fn(field, s)
		}
		return pass()
	})
}

func pass() Rule {
	return Rule{Check: func() bool { return true }}
}

// Validate checks a present value and returns the first failure.
func (a *Arg) Validate(field string, value any) *ValidationError {
	if value == nil {
		if a.nullable || a.kind == KindAny {
			return nil
		}
		return a.fail(field, kindMessages[a.kind], "validation.type", value, true)
	}

	normalized, ok := coerce(a.kind, value)
	if !ok {
		return a.fail(field, kindMessages[a.kind], "validation.type", value, true)
	}

	for _, check := range a.checks {
		rule := check(field, normalized)
		if !rule.Check() {
			return a.decorate(rule.Error, value, true)
		}
	}
	return nil
}

func (a *Arg) fail(field, message, key string, value any, hasValue bool) *ValidationError {
	return a.decorate(ValidationError{
		Field:             field,
		Message:           message,
		TranslationKey:    key,
		TranslationValues: map[string]any{"field": field},
	}, value, hasValue)
}

func (a *Arg) decorate(err ValidationError, value any, hasValue bool) *ValidationError {
	values := make(map[string]any, len(err.TranslationValues)+3)
	for k, v := range err.TranslationValues {
		values[k] = v
	}
	if a.label != "" {
		values["label"] = a.label
	}
	if hasValue {
		values["value"] = value
	}
	if pos, ok := ArgPosition(err.Field); ok {
		values["position"] = pos
	}
	err.TranslationValues = values
	return &err
}

// ValidateArgs checks args against schema by position. Schema entries are
// required unless Optional; arguments beyond the schema are not checked.
// Failures are reported per position under the field "arg_pos_<n>".
func ValidateArgs(schema []*Arg, args []any) error {
	var errs ValidationErrors

	for i, arg := range schema {
		if arg == nil {
			return fmt.Errorf("%w: argument %d has no schema", ErrInvalidSchema, i+1)
		}

		field := ArgField(i + 1)
		if i >= len(args) {
			if !arg.optional {
				errs.Add(*arg.fail(field, "is required", "validation.required", nil, false))
			}
			continue
		}

		if err := arg.Validate(field, args[i]); err != nil {
			errs.Add(*err)
		}
	}

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

// ArgField returns the field name for the 1-based position.
func ArgField(pos int) string {
	return "arg_pos_" + strconv.Itoa(pos)
}

// ArgPosition parses a field produced by ArgField.
func ArgPosition(field string) (int, bool) {
	raw, ok := strings.CutPrefix(field, "arg_pos_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

// coerce maps decoded JSON values onto the kind, converting numeric and
// boolean strings the way lenient JSON APIs commonly do.
func coerce(kind Kind, v any) (any, bool) {
	switch kind {
	case KindAny:
		return v, true
	case KindNumber:
		return toFloat(v)
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			switch strings.ToLower(b) {
			case "true":
				return true, true
			case "false":
				return false, true
			}
		}
		return nil, false
	case KindObject:
		m, ok := v.(map[string]any)
		return m, ok
	case KindArray:
		s, ok := v.([]any)
		return s, ok
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		if strings.TrimSpace(n) == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
