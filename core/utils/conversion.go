package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToInt converts various types to int using explicit type switching.
// It handles standard integer types, floats, strings, byte slices and json.Number.
func ToInt(val any) int {
	switch v := val.(type) {
	case nil:
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case uint:
		return int(v)
	case uint64:
		return int(v)
	case uint32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return int(f)
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(s, 64)
		return int(f)
	case []byte:
		return ToInt(string(v))
	default:
		return ToInt(fmt.Sprintf("%v", v))
	}
}

// ToFloat converts numbers and numeric strings to float64.
// Unparseable values yield 0.
func ToFloat(val any) float64 {
	switch v := val.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	case []byte:
		return ToFloat(string(v))
	default:
		f, _ := strconv.ParseFloat(fmt.Sprintf("%v", v), 64)
		return f
	}
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
// It handles bool, numeric types (1=true), and strings ("1", "true").
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int, int64, int32, uint, uint64, uint32, float64, float32, json.Number:
		return ToInt(v) == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "1" || s == "true" || s == "yes"
	case []byte:
		return ToBool(string(v))
	default:
		return false
	}
}
