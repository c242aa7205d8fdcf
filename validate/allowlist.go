// Package validate checks resolved training configurations against
// acceptance rules.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/xtgo/set"

	"github.com/sepalml/sepal/config"
)

// ErrParamMissing is returned when the parameter a rule covers is absent
// from the configuration under validation.
var ErrParamMissing = errors.New("parameter missing from configuration")

// Validator is an interface for checking a resolved configuration.
type Validator interface {
	// Name identifies the rule in output.
	Name() string
	// Validate returns nil when the configuration satisfies the rule, and an
	// error describing the violation otherwise.
	Validate(p config.Params) error
}

// Error reports a parameter value that is not in the allow-list it is
// validated against.
type Error struct {
	Param   string
	Value   string
	Allowed []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %q is not in the allowed set %v", e.Param, e.Value, e.Allowed)
}

// AllowList is a validation rule asserting that the value of one parameter
// belongs to a fixed set. The zero value accepts nothing; construct with
// NewAllowList. The rule is immutable and carries its own allowed set, so
// the same parameter can be validated against different sets side by side.
type AllowList struct {
	param  string
	values []string
}

// NewAllowList creates an allow-list for a parameter. Values are
// canonicalised: sorted and deduplicated.
func NewAllowList(param string, values ...string) AllowList {
	canonical := append([]string(nil), values...)
	sort.Strings(canonical)
	n := set.Uniq(sort.StringSlice(canonical))
	return AllowList{
		param:  param,
		values: canonical[:n],
	}
}

// Name identifies the rule, including the parameter it covers.
func (a AllowList) Name() string {
	return fmt.Sprintf("allow(%s)", a.param)
}

// Param is the parameter the rule covers.
func (a AllowList) Param() string {
	return a.param
}

// Values is the canonical allowed set.
func (a AllowList) Values() []string {
	return append([]string(nil), a.values...)
}

// Contains reports whether a value is in the allowed set.
func (a AllowList) Contains(value string) bool {
	i := sort.SearchStrings(a.values, value)
	return i < len(a.values) && a.values[i] == value
}

// Validate checks the configured value of the covered parameter. A missing
// parameter wraps ErrParamMissing; a value outside the set returns an *Error
// naming the offending value and the allowed set.
func (a AllowList) Validate(p config.Params) error {
	v, ok := p[a.param]
	if !ok {
		return errors.Wrap(ErrParamMissing, a.param)
	}
	value, ok := v.(string)
	if !ok {
		return errors.Errorf("%s has non-string value %v", a.param, v)
	}
	if !a.Contains(value) {
		return &Error{
			Param:   a.param,
			Value:   value,
			Allowed: a.Values(),
		}
	}
	return nil
}

// ParseAllowList parses a rule written as param=value[,value...], the form
// rules take on the command line.
func ParseAllowList(rule string) (AllowList, error) {
	parts := strings.SplitN(rule, "=", 2)
	if len(parts) != 2 {
		return AllowList{}, errors.Errorf("malformed rule %q, want param=value,value", rule)
	}
	param := strings.TrimSpace(parts[0])
	var values []string
	for _, v := range strings.Split(parts[1], ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if param == "" || len(values) == 0 {
		return AllowList{}, errors.Errorf("malformed rule %q, want param=value,value", rule)
	}
	return NewAllowList(param, values...), nil
}

// Filter returns the values that are members of the allowed set, preserving
// their order. Tuning uses this to pre-filter candidate grids.
func (a AllowList) Filter(values []string) []string {
	var kept []string
	for _, v := range values {
		if a.Contains(v) {
			kept = append(kept, v)
		}
	}
	return kept
}
