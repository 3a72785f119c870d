package helpers

import (
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FirstPresent returns the first key of doc holding a non-nil value.
func FirstPresent(doc bson.M, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// ToNumber coerces the numeric shapes documents carry. Strings are parsed;
// anything else, NaN and infinities report false.
func ToNumber(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case primitive.Decimal128:
		parsed, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NumberOr is ToNumber with a fallback.
func NumberOr(v interface{}, fallback float64) float64 {
	if f, ok := ToNumber(v); ok {
		return f
	}
	return fallback
}

// ToString returns strings as-is and formats numbers and ObjectIDs; everything else is "".
func ToString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case primitive.ObjectID:
		return s.Hex()
	case int, int32, int64, float64:
		f, _ := ToNumber(s)
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return ""
	}
}

// StringField returns the first non-empty string among keys.
func StringField(doc bson.M, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(ToString(doc[k])); s != "" {
			return s
		}
	}
	return ""
}

// ToMap accepts the map shapes the mongo driver and JSON decoding produce.
func ToMap(v interface{}) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]interface{}:
		return bson.M(m), true
	case bson.D:
		return m.Map(), true
	default:
		return nil, false
	}
}

// ToSlice accepts bson.A and plain slices.
func ToSlice(v interface{}) ([]interface{}, bool) {
	switch a := v.(type) {
	case bson.A:
		return []interface{}(a), true
	case []interface{}:
		return a, true
	case []bson.M:
		out := make([]interface{}, len(a))
		for i := range a {
			out[i] = a[i]
		}
		return out, true
	case []map[string]interface{}:
		out := make([]interface{}, len(a))
		for i := range a {
			out[i] = a[i]
		}
		return out, true
	default:
		return nil, false
	}
}
