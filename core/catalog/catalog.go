// Package catalog holds the fixed set of analytical query definitions.
// The catalog is loaded once at startup from an embedded YAML document,
// validated, and never mutated afterwards.
package catalog

import (
	_ "embed"
	"sort"

	"github.com/tunestat/tunestat/core/shared/errors"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ParamType is the declared type of a query parameter
type ParamType string

const (
	ParamString ParamType = "string"
	ParamInt    ParamType = "int"
	ParamFloat  ParamType = "float"
)

// ParamSpec declares one input parameter of a query definition
type ParamSpec struct {
	Name        string
	Type        ParamType
	Description string
}

// Definition is the immutable specification of one analytical query.
// Statements reference parameters as {{ inputs.name }} placeholders;
// execution binds them as driver arguments, never as literals.
type Definition struct {
	ID          int
	Name        string
	Description string
	Statement   string
	Params      []ParamSpec
}

// Catalog is the set of query definitions keyed by id
type Catalog struct {
	defs []Definition
	byID map[int]*Definition
}

// New builds a catalog from definitions and validates it as a whole
func New(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs: make([]Definition, len(defs)),
		byID: make(map[int]*Definition, len(defs)),
	}
	copy(c.defs, defs)
	sort.Slice(c.defs, func(i, j int) bool { return c.defs[i].ID < c.defs[j].ID })
	for i := range c.defs {
		c.byID[c.defs[i].ID] = &c.defs[i]
	}
	if err := validateCatalog(c.defs); err != nil {
		return nil, err
	}
	return c, nil
}

// Default loads the embedded catalog
func Default() (*Catalog, error) {
	defs, err := ParseYAML(defaultCatalogYAML)
	if err != nil {
		return nil, err
	}
	return New(defs)
}

// Get returns the definition with the given id
func (c *Catalog) Get(id int) (*Definition, error) {
	def, ok := c.byID[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNotFound, "query %d is not in the catalog", id)
	}
	return def, nil
}

// All returns the definitions ordered by id
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Len returns the number of definitions
func (c *Catalog) Len() int {
	return len(c.defs)
}
