// Package queryparams parses declared query parameters into typed values,
// reporting failures as API errors.
package queryparams

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/apierrors"
)

// Kind is the value type a parameter is parsed as.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
	Date
)

// DateLayout is the accepted format for Date parameters.
const DateLayout = "2006-01-02"

// Param declares one query parameter.
type Param struct {
	Name     string
	Tip      string
	Kind     Kind
	Required bool
	List     bool
}

// ParamName implements apierrors.Param.
func (p Param) ParamName() string { return p.Name }

// ParamTip implements apierrors.Param.
func (p Param) ParamTip() string { return p.Tip }

// Values holds parsed parameters keyed by name. List parameters hold slices.
type Values map[string]any

// Parse validates query against params. All missing required parameters are
// reported together; the first malformed value is reported on its own.
func Parse(query url.Values, params ...Param) (Values, error) {
	var missing []string
	for _, p := range params {
		if p.Required && len(nonEmpty(query[p.Name])) == 0 {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return nil, apierrors.MissingQueryParams(missing...)
	}

	values := make(Values, len(params))
	for _, p := range params {
		raw := nonEmpty(query[p.Name])
		if len(raw) == 0 {
			continue
		}

		if !p.List {
			v, err := convert(p, raw[0])
			if err != nil {
				return nil, err
			}
			values[p.Name] = v
			continue
		}

		list := make([]any, 0, len(raw))
		for _, r := range raw {
			v, err := convert(p, r)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		values[p.Name] = list
	}

	return values, nil
}

// RequireSameLength checks that two list parameters pair up. A parameter that
// was not supplied counts as zero elements.
func RequireSameLength(values Values, first, second string) error {
	n1 := len(values.List(first))
	n2 := len(values.List(second))
	if n1 != n2 {
		return apierrors.MismatchedQueryParams(first, second, n1, n2)
	}
	return nil
}

// Has reports whether name was supplied.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// String returns a string parameter or def.
func (v Values) String(name, def string) string {
	if s, ok := v[name].(string); ok {
		return s
	}
	return def
}

// Int returns an int parameter or def.
func (v Values) Int(name string, def int) int {
	if i, ok := v[name].(int); ok {
		return i
	}
	return def
}

// Float returns a float parameter or def.
func (v Values) Float(name string, def float64) float64 {
	if f, ok := v[name].(float64); ok {
		return f
	}
	return def
}

// Bool returns a bool parameter or def.
func (v Values) Bool(name string, def bool) bool {
	if b, ok := v[name].(bool); ok {
		return b
	}
	return def
}

// Date returns a date parameter, or nil when absent.
func (v Values) Date(name string) *time.Time {
	if t, ok := v[name].(time.Time); ok {
		return &t
	}
	return nil
}

// List returns the raw list for a list parameter.
func (v Values) List(name string) []any {
	list, _ := v[name].([]any)
	return list
}

// Strings returns a list parameter of strings.
func (v Values) Strings(name string) []string {
	list := v.List(name)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func convert(p Param, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch p.Kind {
	case Int:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apierrors.InvalidQueryParamFormat(p, raw)
		}
		return i, nil
	case Float:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apierrors.InvalidQueryParamFormat(p, raw)
		}
		return f, nil
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apierrors.InvalidQueryParamFormat(p, raw)
		}
		return b, nil
	case Date:
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, apierrors.InvalidQueryParamFormat(p, raw)
		}
		return t, nil
	default:
		return raw, nil
	}
}

func nonEmpty(raw []string) []string {
	out := raw[:0:0]
	for _, r := range raw {
		if strings.TrimSpace(r) != "" {
			out = append(out, r)
		}
	}
	return out
}
