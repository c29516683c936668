package tools

import "strings"

// Arguments is the untyped argument map of an invocation.
type Arguments map[string]any

// Validate checks that every required parameter of spec is present and
// non-empty, in declaration order, and reports the first one that is not.
// Value types are not checked here.
func Validate(spec ToolSpec, args Arguments) error {
	for _, p := range spec.Params {
		if !p.Required {
			continue
		}
		if isEmpty(args[p.Key]) {
			return newError(CodeMissingArgument, "missing required argument: %s", p.Key)
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}
