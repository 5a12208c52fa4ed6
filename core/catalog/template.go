package catalog

import (
	"regexp"
	"strings"

	"github.com/tunestat/tunestat/core/shared/errors"
)

// Template pattern: {{ inputs.fieldName }}
var templatePattern = regexp.MustCompile(`\{\{\s*inputs\.(\w+)\s*\}\}`)

// Placeholders extracts the distinct input names referenced in a
// statement, in order of first appearance.
func Placeholders(statement string) []string {
	matches := templatePattern.FindAllStringSubmatch(statement, -1)
	seen := make(map[string]bool)
	var result []string
	for _, match := range matches {
		if len(match) < 2 {
			continue
		}
		if !seen[match[1]] {
			seen[match[1]] = true
			result = append(result, match[1])
		}
	}
	return result
}

// Compile rewrites every {{ inputs.x }} placeholder into a '?' driver
// placeholder and returns the argument values in occurrence order.
// Values are bound by the driver, never interpolated into the
// statement text.
func Compile(statement string, values map[string]any) (string, []any, error) {
	var args []any
	var compileErr error

	compiled := templatePattern.ReplaceAllStringFunc(statement, func(match string) string {
		sub := templatePattern.FindStringSubmatch(match)
		name := sub[1]
		value, exists := values[name]
		if !exists {
			if compileErr == nil {
				compileErr = errors.Newf(errors.ErrCodeParameterValidation, "input '%s' not found for substitution", name)
			}
			return match
		}
		args = append(args, value)
		return "?"
	})
	if compileErr != nil {
		return "", nil, compileErr
	}
	return strings.TrimSpace(compiled), args, nil
}
