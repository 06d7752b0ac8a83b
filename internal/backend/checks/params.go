package checks

import "fmt"

// GetIntParam safely extracts an int parameter from the params map
func GetIntParam(params map[string]any, key string, defaultValue int) int {
	if val, ok := params[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

// getNonNegativeIntParam rejects negative values for size-like parameters
func getNonNegativeIntParam(params map[string]any, key string, defaultValue int) (int, error) {
	v := GetIntParam(params, key, defaultValue)
	if v < 0 {
		return 0, fmt.Errorf("%s must be non-negative, got %d", key, v)
	}
	return v, nil
}
