package coretools

import "fmt"

// Validated arguments arrive as JSON-decoded values, so numbers are
// float64 and everything else is interface{}. These coercers pull typed
// values out after validation has already checked shapes.

func strArg(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func strArgDefault(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intArg(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func boolArg(params map[string]interface{}, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func mapArg(params map[string]interface{}, key string) map[string]string {
	raw, ok := params[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
