package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// PollResult is the raw key/value object returned by one fetch of the stats endpoint.
// Numbers are expected as json.Number (decoder UseNumber) but float64 is accepted too.
type PollResult map[string]any

// Number returns the numeric value stored under key. Missing, null and non-numeric
// values report false.
func (r PollResult) Number(key string) (float64, bool) {
	raw, ok := r[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Scalar renders the value under key for a text display. Objects, arrays and null
// are not scalars.
func (r PollResult) Scalar(key string) (string, bool) {
	raw, ok := r[key]
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case json.Number:
		return v.String(), true
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32, int, int64, uint64:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

// Keys returns the result's keys in lexical order.
func (r PollResult) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
