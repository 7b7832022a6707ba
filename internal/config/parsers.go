// Package config loads and validates the pathlength run configuration.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// lookupSetting searches for a value in settings using multiple candidate keys.
// It performs case-insensitive matching by also checking lowercase versions.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		lower := strings.ToLower(key)
		if val, ok := settings[lower]; ok {
			return val, true
		}
	}
	return nil, false
}

// asString converts an interface value to a string.
// Handles nil, string, fmt.Stringer, []byte, and falls back to fmt.Sprint.
func asString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// asInt converts an interface value to an int.
// Handles all numeric types and string representations.
func asInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, err
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", value)
	}
}

// asFloat64 converts an interface value to a float64.
// Handles all numeric types and string representations.
func asFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("unsupported float type %T", value)
	}
}

// asBool converts an interface value to a bool.
// Handles bool and string representations.
func asBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, err
		}
		return b, nil
	default:
		return false, fmt.Errorf("unsupported boolean type %T", value)
	}
}

// asStringSlice converts an interface value to a []string.
// Handles []string, []interface{}, and single string values.
func asStringSlice(value interface{}) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case []string:
		return v, nil
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			str, err := asString(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			result[i] = str
		}
		return result, nil
	case string:
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("unsupported string slice type %T", value)
	}
}

// toInterfaceSlice converts various slice types to []interface{}.
func toInterfaceSlice(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return v, nil
	case []map[string]interface{}:
		items := make([]interface{}, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, nil
	case []map[interface{}]interface{}:
		items := make([]interface{}, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", value)
	}
}

// toStringKeyMap converts a map with various key types to map[string]interface{}.
// Keys are normalized to lowercase.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	switch v := value.(type) {
	case map[string]interface{}:
		for key, val := range v {
			result[strings.ToLower(strings.TrimSpace(key))] = val
		}
	case map[interface{}]interface{}:
		for key, val := range v {
			str, err := asString(key)
			if err != nil {
				return nil, err
			}
			result[strings.ToLower(strings.TrimSpace(str))] = val
		}
	default:
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	return result, nil
}

// asLayer converts a layer value to a Layer. Accepted forms are a two-element
// list [number, datatype], a bare number (datatype 0), a "number/datatype"
// string and a map with number and datatype keys.
func asLayer(value interface{}) (Layer, error) {
	switch v := value.(type) {
	case nil:
		return Layer{}, fmt.Errorf("layer is empty")
	case string:
		text := strings.TrimSpace(v)
		num, dt, found := strings.Cut(text, "/")
		layer := Layer{}
		var err error
		if layer.Number, err = strconv.Atoi(strings.TrimSpace(num)); err != nil {
			return Layer{}, fmt.Errorf("invalid layer %q", v)
		}
		if found {
			if layer.Datatype, err = strconv.Atoi(strings.TrimSpace(dt)); err != nil {
				return Layer{}, fmt.Errorf("invalid layer %q", v)
			}
		}
		return layer, nil
	case map[string]interface{}, map[interface{}]interface{}:
		settings, err := toStringKeyMap(v)
		if err != nil {
			return Layer{}, err
		}
		layer := Layer{}
		if raw, ok := lookupSetting(settings, "number", "layer"); ok {
			if layer.Number, err = asInt(raw); err != nil {
				return Layer{}, fmt.Errorf("number: %w", err)
			}
		} else {
			return Layer{}, fmt.Errorf("layer number is required")
		}
		if raw, ok := lookupSetting(settings, "datatype"); ok {
			if layer.Datatype, err = asInt(raw); err != nil {
				return Layer{}, fmt.Errorf("datatype: %w", err)
			}
		}
		return layer, nil
	case []interface{}:
		if len(v) != 2 {
			return Layer{}, fmt.Errorf("layer must have 2 elements, got %d", len(v))
		}
		num, err := asStrictInt(v[0])
		if err != nil {
			return Layer{}, fmt.Errorf("number: %w", err)
		}
		dt, err := asStrictInt(v[1])
		if err != nil {
			return Layer{}, fmt.Errorf("datatype: %w", err)
		}
		return Layer{Number: num, Datatype: dt}, nil
	default:
		num, err := asStrictInt(v)
		if err != nil {
			return Layer{}, err
		}
		return Layer{Number: num}, nil
	}
}

// asStrictInt is asInt without the empty-string-is-zero shortcut and with a
// check that floats carry no fraction.
func asStrictInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("value is empty")
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%g is not an integer", v)
		}
	case float32:
		if v != float32(int(v)) {
			return 0, fmt.Errorf("%g is not an integer", v)
		}
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, fmt.Errorf("value is empty")
		}
	}
	return asInt(value)
}

// asLabelPairs converts the labels setting. Each entry is either a two-element
// list [input, output] or a map with input and output keys.
func asLabelPairs(value interface{}) ([]LabelPair, error) {
	items, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	pairs := make([]LabelPair, 0, len(items))
	for idx, item := range items {
		var pair LabelPair
		switch v := item.(type) {
		case []interface{}:
			if len(v) != 2 {
				return nil, fmt.Errorf("labels[%d]: expected [input, output], got %d elements", idx, len(v))
			}
			if pair.Input, err = asString(v[0]); err != nil {
				return nil, fmt.Errorf("labels[%d].input: %w", idx, err)
			}
			if pair.Output, err = asString(v[1]); err != nil {
				return nil, fmt.Errorf("labels[%d].output: %w", idx, err)
			}
		case []string:
			if len(v) != 2 {
				return nil, fmt.Errorf("labels[%d]: expected [input, output], got %d elements", idx, len(v))
			}
			pair = LabelPair{Input: v[0], Output: v[1]}
		case map[string]interface{}, map[interface{}]interface{}:
			settings, err := toStringKeyMap(v)
			if err != nil {
				return nil, fmt.Errorf("labels[%d]: %w", idx, err)
			}
			if raw, ok := lookupSetting(settings, "input", "in"); ok {
				if pair.Input, err = asString(raw); err != nil {
					return nil, fmt.Errorf("labels[%d].input: %w", idx, err)
				}
			}
			if raw, ok := lookupSetting(settings, "output", "out"); ok {
				if pair.Output, err = asString(raw); err != nil {
					return nil, fmt.Errorf("labels[%d].output: %w", idx, err)
				}
			}
		default:
			return nil, fmt.Errorf("labels[%d]: unsupported label pair type %T", idx, item)
		}
		pair.Input = strings.TrimSpace(pair.Input)
		pair.Output = strings.TrimSpace(pair.Output)
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
