package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/wbemctl/internal/wbem"
)

// ParseParams parses method inputs written as name=value or
// name:type=value, where type is bool, int, string or null. Untyped
// values are inferred: true/false, integers and null take their types,
// anything else is a string.
func ParseParams(args []string) ([]wbem.Param, error) {
	params := make([]wbem.Param, 0, len(args))
	for _, arg := range args {
		p, err := parseParam(arg)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func parseParam(arg string) (wbem.Param, error) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok {
		return wbem.Param{}, fmt.Errorf("invalid parameter %q: expected name=value", arg)
	}
	name, typ, typed := strings.Cut(key, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return wbem.Param{}, fmt.Errorf("invalid parameter %q: empty name", arg)
	}
	if !typed {
		return inferParam(name, value), nil
	}

	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return wbem.Param{}, fmt.Errorf("invalid bool for %s: %q", name, value)
		}
		return wbem.BoolParam(name, b), nil
	case "int":
		i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return wbem.Param{}, fmt.Errorf("invalid int for %s: %q", name, value)
		}
		return wbem.IntParam(name, i), nil
	case "string":
		return wbem.StringParam(name, value), nil
	case "null":
		return wbem.NullParam(name), nil
	default:
		return wbem.Param{}, fmt.Errorf("unknown parameter type %q for %s (valid: bool, int, string, null)", typ, name)
	}
}

func inferParam(name, value string) wbem.Param {
	switch strings.ToLower(value) {
	case "true":
		return wbem.BoolParam(name, true)
	case "false":
		return wbem.BoolParam(name, false)
	case "null":
		return wbem.NullParam(name)
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return wbem.IntParam(name, i)
	}
	return wbem.StringParam(name, value)
}

// ParseWhere parses name=value selections.
func ParseWhere(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	where := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid selection %q: expected property=value", arg)
		}
		where[name] = value
	}
	return where, nil
}
