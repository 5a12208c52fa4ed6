package catalog

import (
	"fmt"
	"strconv"

	"github.com/tunestat/tunestat/core/shared/errors"
)

// ValidateParams validates user-provided parameters against a query's
// parameter spec: every declared parameter must be present, no extras
// are accepted, and each value must convert to the declared type.
// It fails before any backend call is issued.
func ValidateParams(def *Definition, params map[string]any) (map[string]any, error) {
	specByName := make(map[string]*ParamSpec, len(def.Params))
	for i := range def.Params {
		specByName[def.Params[i].Name] = &def.Params[i]
	}

	for _, spec := range def.Params {
		if _, exists := params[spec.Name]; !exists {
			return nil, errors.Newf(errors.ErrCodeParameterValidation,
				"query '%s': required parameter '%s' is missing", def.Name, spec.Name)
		}
	}

	validated := make(map[string]any, len(params))
	for name, value := range params {
		spec, exists := specByName[name]
		if !exists {
			return nil, errors.Newf(errors.ErrCodeParameterValidation,
				"query '%s': unknown parameter '%s'", def.Name, name)
		}
		converted, err := convertValue(value, spec.Type)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeParameterValidation,
				"query '%s': parameter '%s': %v", def.Name, name, err)
		}
		validated[name] = converted
	}
	return validated, nil
}

// convertValue converts a value to the expected type and validates it
func convertValue(value any, expected ParamType) (any, error) {
	switch expected {
	case ParamString:
		return convertToString(value)
	case ParamInt:
		return convertToInt(value)
	case ParamFloat:
		return convertToFloat(value)
	default:
		return nil, fmt.Errorf("unsupported type '%s'", expected)
	}
}

func convertToString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", value)
	}
}

func convertToInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return int64(v), nil
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert '%s' to int", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

func convertToFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert '%s' to float", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}
