package recommender

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Normalize recursively rewrites a nested structure so every scalar is a
// portable primitive: library-native numerics (decimal.Decimal, json.Number)
// become plain floats, integer kinds widen to int64, timestamps become
// RFC3339 strings, and structs flatten to maps keyed by their json tags.
// Normalizing an already-normalized structure returns an equal structure.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		f, _ := val.Float64()
		return f
	case *decimal.Decimal:
		if val == nil {
			return nil
		}
		f, _ := val.Float64()
		return f
	case json.Number:
		f, _ := val.Float64()
		return f
	case time.Time:
		return val.Format(time.RFC3339)
	case bool, string, float64, int64:
		return val
	case float32:
		return float64(val)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Map:
		normalized := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			normalized[fmt.Sprint(iter.Key().Interface())] = Normalize(iter.Value().Interface())
		}
		return normalized
	case reflect.Slice, reflect.Array:
		normalized := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			normalized[i] = Normalize(rv.Index(i).Interface())
		}
		return normalized
	case reflect.Struct:
		return normalizeStruct(rv)
	}

	return v
}

// NormalizeSuggestions converts a suggestion list into plain maps ready for
// JSON serialization at the API boundary
func NormalizeSuggestions(suggestions []Suggestion) []interface{} {
	return Normalize(suggestions).([]interface{})
}

// normalizeStruct flattens a struct into a map using json tags, honoring
// "-" and omitempty so error records carry only their meaningful fields
func normalizeStruct(rv reflect.Value) map[string]interface{} {
	rt := rv.Type()
	normalized := make(map[string]interface{}, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		omitEmpty := false
		if tag, ok := field.Tag.Lookup("json"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}

		value := rv.Field(i)
		if omitEmpty && value.IsZero() {
			continue
		}
		normalized[name] = Normalize(value.Interface())
	}

	return normalized
}
