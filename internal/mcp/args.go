package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// toolArgs wraps the decoded arguments of a tool call.
type toolArgs map[string]interface{}

// argsOf extracts the arguments map of a request.
func argsOf(request mcp.CallToolRequest) (toolArgs, error) {
	if request.Params.Arguments == nil {
		return toolArgs{}, nil
	}
	m, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}
	return toolArgs(m), nil
}

// str extracts a string argument.
// Returns an error if the argument is required but missing or invalid.
func (a toolArgs) str(key string, required bool) (string, error) {
	val, ok := a[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s parameter is required", key)
		}
		return "", nil
	}

	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if required && s == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}
	return s, nil
}

// boolean returns defaultVal if the argument is missing or not a bool.
func (a toolArgs) boolean(key string, defaultVal bool) bool {
	if b, ok := a[key].(bool); ok {
		return b
	}
	return defaultVal
}

// clampedInt extracts an integer argument clamped to [min, max].
// MCP sends numbers as float64. Returns defaultVal if missing or invalid.
func (a toolArgs) clampedInt(key string, defaultVal, min, max int) int {
	f, ok := a[key].(float64)
	if !ok {
		return defaultVal
	}
	switch v := int(f); {
	case v < min:
		return min
	case v > max:
		return max
	default:
		return v
	}
}

// strings extracts a string array. A single string is accepted as a one
// element array. Non-string elements are an error.
func (a toolArgs) strings(key string, required bool) ([]string, error) {
	val, ok := a[key]
	if !ok {
		if required {
			return nil, fmt.Errorf("%s parameter is required", key)
		}
		return nil, nil
	}

	var out []string
	switch v := val.(type) {
	case string:
		out = []string{v}
	case []interface{}:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i)
			}
			out = append(out, s)
		}
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}

	if required && len(out) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", key)
	}
	return out, nil
}
