package gateway

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// EncodeQuery appends params to basePath as a canonical query string.
// Nil values are omitted, slices are comma-joined, and keys are sorted so that
// equal maps always produce equal strings.
func EncodeQuery(basePath string, params map[string]any) string {
	values := url.Values{}
	for key, value := range params {
		s, ok := formatValue(value)
		if !ok {
			continue
		}
		values.Set(key, s)
	}

	if len(values) == 0 {
		return basePath
	}

	sep := "?"
	if strings.Contains(basePath, "?") {
		sep = "&"
	}
	// url.Values.Encode sorts by key.
	return basePath + sep + values.Encode()
}

func formatValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case []string:
		return strings.Join(v, ","), true
	case fmt.Stringer:
		if isNil(v) {
			return "", false
		}
		return v.String(), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
		return formatValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := formatValue(rv.Index(i).Interface()); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	}

	return fmt.Sprint(value), true
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// Signature is the loop-detection identity of a call: method plus the encoded
// endpoint. Request bodies are not part of it.
func Signature(method, endpoint string) string {
	return strings.ToUpper(method) + " " + endpoint
}
