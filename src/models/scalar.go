package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxExactInt is the largest integer a float64 holds without rounding.
const maxExactInt = 1 << 53

// ScalarString formats a JSON scalar without float noise.
func ScalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// -----------------------------------------------------------------------------

// DecodeJSON parses one JSON value. Numbers become float64, except integers
// beyond 2^53 which stay json.Number so their digits survive.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return settleNumbers(v), nil
}

func settleNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		return settleNumber(t)
	case map[string]any:
		for k, x := range t {
			t[k] = settleNumbers(x)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = settleNumbers(x)
		}
		return t
	}
	return v
}

func settleNumber(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || i > maxExactInt || i < -maxExactInt {
			return n
		}
		return float64(i)
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n
}
