package waypoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/petrijr/waypoint/pkg/api"
)

// ErrInvalidCondition is returned for malformed skip_when / persist_when
// expressions.
var ErrInvalidCondition = errors.New("invalid condition")

// Condition is a predicate over the answers carried by a step's args.
type Condition func(args PassedArgs) bool

// Answers returns the map[string]any carried by args, or an empty map.
func Answers(args PassedArgs) map[string]any {
	if m, ok := api.ArgsAs[map[string]any](args); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// WithAnswer returns args whose answers are a copy of the ones in args plus
// key set to value.
func WithAnswer(args PassedArgs, key string, value any) PassedArgs {
	src := Answers(args)
	out := make(map[string]any, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	out[key] = value
	return api.Args(out)
}

// ParseCondition parses a condition over answers. The grammar is small:
//
//	expr   := clause { "||" clause }
//	clause := atom { "&&" atom }
//	atom   := key | "!" key | key "==" value | key "!=" value
//
// A bare key holds when its answer is truthy. Values may be quoted and are
// compared with the answer's fmt.Sprint form.
func ParseCondition(expr string) (Condition, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidCondition)
	}

	var anyOf []Condition
	for _, clause := range strings.Split(expr, "||") {
		var allOf []Condition
		for _, atom := range strings.Split(clause, "&&") {
			c, err := parseAtom(strings.TrimSpace(atom))
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidCondition, expr, err)
			}
			allOf = append(allOf, c)
		}
		anyOf = append(anyOf, all(allOf))
	}

	return func(args PassedArgs) bool {
		for _, c := range anyOf {
			if c(args) {
				return true
			}
		}
		return false
	}, nil
}

func all(cs []Condition) Condition {
	return func(args PassedArgs) bool {
		for _, c := range cs {
			if !c(args) {
				return false
			}
		}
		return true
	}
}

func parseAtom(atom string) (Condition, error) {
	if atom == "" {
		return nil, errors.New("empty term")
	}

	for _, op := range []string{"!=", "=="} {
		key, raw, found := strings.Cut(atom, op)
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if !validKey(key) {
			return nil, fmt.Errorf("bad key %q", key)
		}
		want := unquote(strings.TrimSpace(raw))
		negate := op == "!="
		return func(args PassedArgs) bool {
			v, ok := Answers(args)[key]
			equal := ok && fmt.Sprint(v) == want
			return equal != negate
		}, nil
	}

	negate := strings.HasPrefix(atom, "!")
	key := strings.TrimSpace(strings.TrimPrefix(atom, "!"))
	if !validKey(key) {
		return nil, fmt.Errorf("bad key %q", key)
	}
	return func(args PassedArgs) bool {
		return truthy(Answers(args)[key]) != negate
	}, nil
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	return !strings.ContainsAny(key, " \t!=&|\"'")
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "false", "no", "n", "0", "off":
			return false
		}
		return true
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}
