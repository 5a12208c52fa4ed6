package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationErrors represents a collection of catalog validation errors
type ValidationErrors struct {
	Errors []string
}

// Error implements the error interface
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("catalog validation failed with %d error(s): %s",
		len(ve.Errors), strings.Join(ve.Errors, "; "))
}

// Query name pattern: must start with a letter, lowercase only
// (lower-snake-case or lower-kebab-case)
var queryNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// validateCatalog checks the catalog as a whole: unique ids and names,
// well-formed statements with a declared ordering, and agreement
// between each statement's placeholders and its parameter spec.
func validateCatalog(defs []Definition) error {
	var errs []string

	if len(defs) == 0 {
		errs = append(errs, "catalog requires at least one query")
	}

	ids := make(map[int]bool)
	names := make(map[string]bool)

	for _, def := range defs {
		prefix := def.Name
		if prefix == "" {
			prefix = fmt.Sprintf("query[%d]", def.ID)
		}

		if def.ID <= 0 {
			errs = append(errs, fmt.Sprintf("Query '%s' - id must be positive", prefix))
		}
		if ids[def.ID] {
			errs = append(errs, fmt.Sprintf("Query '%s' - id %d already defined. Query ids must be unique", prefix, def.ID))
		}
		ids[def.ID] = true

		if def.Name == "" {
			errs = append(errs, fmt.Sprintf("Query [%d] - requires a name", def.ID))
		} else {
			if !queryNamePattern.MatchString(def.Name) {
				errs = append(errs, fmt.Sprintf("Query '%s' - name is invalid. Must start with a letter and be in lower-snake-case or lower-kebab-case", def.Name))
			}
			if names[def.Name] {
				errs = append(errs, fmt.Sprintf("Query '%s' - already defined. Query names must be unique", def.Name))
			}
			names[def.Name] = true
		}

		if strings.TrimSpace(def.Statement) == "" {
			errs = append(errs, fmt.Sprintf("Query '%s' - statement is required", prefix))
			continue
		}

		// Result order must be deterministic to be testable
		if !strings.Contains(strings.ToUpper(def.Statement), "ORDER BY") {
			errs = append(errs, fmt.Sprintf("Query '%s' - statement must declare an ORDER BY clause", prefix))
		}

		paramNames := make(map[string]bool)
		for _, p := range def.Params {
			if p.Name == "" {
				errs = append(errs, fmt.Sprintf("Query '%s' - input requires a name", prefix))
				continue
			}
			if paramNames[p.Name] {
				errs = append(errs, fmt.Sprintf("Query '%s' - input '%s' already defined", prefix, p.Name))
			}
			paramNames[p.Name] = true
		}

		referenced := Placeholders(def.Statement)
		referencedSet := make(map[string]bool, len(referenced))
		for _, name := range referenced {
			referencedSet[name] = true
			if !paramNames[name] {
				errs = append(errs, fmt.Sprintf("Query '%s' - statement references undeclared input '%s'", prefix, name))
			}
		}
		for _, p := range def.Params {
			if p.Name != "" && !referencedSet[p.Name] {
				errs = append(errs, fmt.Sprintf("Query '%s' - input '%s' is defined but not used in statement", prefix, p.Name))
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}
