// Package validator provides composable validation rules and positional
// argument schemas for remote calls.
//
// A Rule couples a boolean Check with translation-friendly error metadata.
// Apply evaluates rules and aggregates failures into ValidationErrors, which
// satisfies the error interface.
//
//	err := validator.Apply(
//	    validator.MinNum("age", age, 18),
//	    validator.ValidEmail("email", email),
//	)
//
// Call arguments arrive as a JSON array, so schemas are declared per
// position with Arg builders and checked with ValidateArgs:
//
//	schema := []*validator.Arg{
//	    validator.Number().Integer().Min(1),
//	    validator.String().Label("title").Max(120),
//	}
//	if err := validator.ValidateArgs(schema, args); err != nil {
//	    for _, e := range validator.ExtractValidationErrors(err) {
//	        // e.Field is "arg_pos_<n>"; e.TranslationValues holds
//	        // "position", "label" and the offending "value" when present.
//	    }
//	}
//
// Each schema entry is required unless marked Optional. Arguments past the
// end of the schema are ignored. Numbers also accept numeric strings and
// booleans accept "true"/"false".
package validator
