package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlCatalog mirrors the on-disk catalog document. Inputs are a list,
// not a map, so the declared prompt order survives parsing.
type yamlCatalog struct {
	Name    string      `yaml:"name"`
	Queries []yamlQuery `yaml:"queries"`
}

type yamlQuery struct {
	ID          int         `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Statement   string      `yaml:"statement"`
	Inputs      []yamlInput `yaml:"inputs"`
}

type yamlInput struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// ParseYAML parses YAML content into query definitions
func ParseYAML(data []byte) ([]Definition, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog YAML: %w", err)
	}

	defs := make([]Definition, 0, len(raw.Queries))
	for _, q := range raw.Queries {
		def := Definition{
			ID:          q.ID,
			Name:        q.Name,
			Description: q.Description,
			Statement:   q.Statement,
		}
		for _, in := range q.Inputs {
			typ := ParamType(in.Type)
			switch typ {
			case ParamString, ParamInt, ParamFloat:
			default:
				return nil, fmt.Errorf("invalid type '%s' for input '%s' in query '%s': must be one of: string, int, float",
					in.Type, in.Name, q.Name)
			}
			def.Params = append(def.Params, ParamSpec{
				Name:        in.Name,
				Type:        typ,
				Description: in.Description,
			})
		}
		defs = append(defs, def)
	}
	return defs, nil
}
