// Package template resolves ${dotted.path} placeholders in action parameters
// against an execution's variable context.
package template

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// Resolve substitutes placeholders throughout a nested value. Strings are
// scanned for ${dotted.path} references into vars; maps and lists are
// resolved recursively; other scalars pass through unchanged.
//
// An unresolved placeholder is left verbatim in the output: resolution never
// fails and never drops data. Whether every placeholder resolved is the
// caller's concern. Substituted text is not re-expanded.
func Resolve(node any, vars map[string]any) any {
	switch v := node.(type) {
	case string:
		return ResolveString(v, vars)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = Resolve(value, vars)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, value := range v {
			out[i] = Resolve(value, vars)
		}

		return out
	default:
		return node
	}
}

// ResolveString substitutes every ${dotted.path} in a single string.
func ResolveString(template string, vars map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		path := match[2 : len(match)-1]

		value, ok := lookup(vars, path)
		if !ok || value == nil {
			return match
		}

		return fmt.Sprintf("%v", value)
	})
}

// lookup walks vars through the dotted path segment by segment. It stops and
// reports not-found as soon as a non-map value is reached before the path is
// exhausted, or a key is absent.
func lookup(vars map[string]any, path string) (any, bool) {
	var current any = vars

	start := 0

	for i := 0; i <= len(path); i++ {
		if i != len(path) && path[i] != '.' {
			continue
		}

		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = node[path[start:i]]
		if !ok {
			return nil, false
		}

		start = i + 1
	}

	return current, true
}
