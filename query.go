package apisvc

import (
	"encoding"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

var schemaEncoder = schema.NewEncoder()

// Param is a single query-string entry.
type Param struct {
	Key   string
	Value any
}

// QueryParams is an ordered set of query-string entries.
//
// Scalar values are stringified. Maps, structs, slices and arrays are encoded as
// JSON so structured filters (ranges, multi-selects) survive the round trip.
// Nil values and nil pointers are omitted entirely.
type QueryParams []Param

// Set replaces the value of key, or appends it when absent.
func (q *QueryParams) Set(key string, value any) {
	for i := range *q {
		if (*q)[i].Key == key {
			(*q)[i].Value = value
			return
		}
	}
	*q = append(*q, Param{Key: key, Value: value})
}

// Get returns the value stored for key.
func (q QueryParams) Get(key string) (any, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Merge returns a new QueryParams holding q followed by other.
// Keys present in both take the value from other, keeping q's position.
func (q QueryParams) Merge(other QueryParams) QueryParams {
	out := make(QueryParams, len(q), len(q)+len(other))
	copy(out, q)
	for _, p := range other {
		out.Set(p.Key, p.Value)
	}
	return out
}

// Encode serializes the params in order, without a leading "?".
func (q QueryParams) Encode() (string, error) {
	var b strings.Builder
	for _, p := range q {
		v, ok, err := stringifyParam(p.Value)
		if err != nil {
			return "", fmt.Errorf("query param %q: %w", p.Key, err)
		}
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	return b.String(), nil
}

// FromStruct builds QueryParams from a flat filter struct using `schema` field
// tags, e.g. `schema:"search,omitempty"`. Keys are emitted in sorted order;
// multi-valued fields are kept as a list and therefore JSON encoded.
func FromStruct(filter any) (QueryParams, error) {
	if filter == nil {
		return nil, nil
	}
	dst := make(map[string][]string)
	if err := schemaEncoder.Encode(filter, dst); err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	keys := make([]string, 0, len(dst))
	for k := range dst {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make(QueryParams, 0, len(keys))
	for _, k := range keys {
		switch vs := dst[k]; len(vs) {
		case 0:
		case 1:
			params = append(params, Param{Key: k, Value: vs[0]})
		default:
			params = append(params, Param{Key: k, Value: vs})
		}
	}
	return params, nil
}

// stringifyParam returns the encoded value of a param and false when it must be omitted.
func stringifyParam(v any) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false, nil
		}
		rv = rv.Elem()
	}
	v = rv.Interface()

	switch tv := v.(type) {
	case string:
		return tv, true, nil
	case bool:
		return strconv.FormatBool(tv), true, nil
	case encoding.TextMarshaler:
		text, err := tv.MarshalText()
		if err != nil {
			return "", false, err
		}
		return string(text), true, nil
	case fmt.Stringer:
		return tv.String(), true, nil
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), true, nil
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true, nil
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return "", false, nil
		}
		fallthrough
	case reflect.Struct, reflect.Array:
		data, err := json.Marshal(v)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	default:
		return "", false, fmt.Errorf("unsupported value of type %T", v)
	}
}
