package eligibility

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CriteriaFieldError reports a criteria value of the wrong type. The field is
// skipped; the scheme is still judged on its other fields.
type CriteriaFieldError struct {
	Scheme string
	Field  string
	Value  any
	Reason string
}

func (e *CriteriaFieldError) Error() string {
	return fmt.Sprintf("scheme %q: criteria field %s=%v: %s", e.Scheme, e.Field, e.Value, e.Reason)
}

type check func(value any, profile NormalizedProfile) (bool, error)

type rule struct {
	keys  []string
	check check
}

// rules is the predicate table. Every key present in a scheme's criteria is
// checked; a missing key places no constraint.
var rules = []rule{
	{keys: []string{"state", "region"}, check: checkRegion},
	{keys: []string{"min_age"}, check: atLeast(func(p NormalizedProfile) int { return p.Age })},
	{keys: []string{"max_age"}, check: atMost(func(p NormalizedProfile) int { return p.Age })},
	{keys: []string{"max_income"}, check: atMost(func(p NormalizedProfile) int { return p.Income })},
	{keys: []string{"occupations"}, check: checkOccupations},
	{keys: []string{"landholding_required"}, check: requires(func(p NormalizedProfile) bool { return p.Landholding })},
	{keys: []string{"bpl_required"}, check: requires(func(p NormalizedProfile) bool { return p.BPL })},
	{keys: []string{"dependent_child_required", "girl_child_required"}, check: requires(func(p NormalizedProfile) bool { return p.GirlChild })},
}

var knownKeys = func() map[string]struct{} {
	known := make(map[string]struct{})
	for _, r := range rules {
		for _, key := range r.keys {
			known[key] = struct{}{}
		}
	}
	return known
}()

func checkRegion(value any, profile NormalizedProfile) (bool, error) {
	regions, err := toStrings(value)
	if err != nil {
		return false, err
	}
	if len(regions) == 0 {
		return true, nil
	}
	for _, region := range regions {
		region = strings.TrimSpace(region)
		if region == "" || strings.EqualFold(region, "all") || region == profile.Region {
			return true, nil
		}
	}
	return false, nil
}

func checkOccupations(value any, profile NormalizedProfile) (bool, error) {
	tokens, err := toStrings(value)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return true, nil
	}

	occupation := profile.Occupation
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "any" {
			return true, nil
		}
		if token == "" || occupation == "" {
			continue
		}
		if strings.Contains(token, occupation) || strings.Contains(occupation, token) {
			return true, nil
		}
	}
	return false, nil
}

func atLeast(field func(NormalizedProfile) int) check {
	return func(value any, profile NormalizedProfile) (bool, error) {
		bound, err := toNumber(value)
		if err != nil {
			return false, err
		}
		return float64(field(profile)) >= bound, nil
	}
}

func atMost(field func(NormalizedProfile) int) check {
	return func(value any, profile NormalizedProfile) (bool, error) {
		bound, err := toNumber(value)
		if err != nil {
			return false, err
		}
		return float64(field(profile)) <= bound, nil
	}
}

func requires(flag func(NormalizedProfile) bool) check {
	return func(value any, profile NormalizedProfile) (bool, error) {
		required, err := toBool(value)
		if err != nil {
			return false, err
		}
		return !required || flag(profile), nil
	}
}

func toNumber(value any) (float64, error) {
	f, err := parseNumber(value)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected a finite number")
	}
	return f, nil
}

func parseNumber(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number")
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes":
			return true, nil
		case "false", "no", "":
			return false, nil
		}
		return false, fmt.Errorf("expected a boolean")
	default:
		return false, fmt.Errorf("expected a boolean, got %T", value)
	}
}

func toStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings, found %T", item)
			}
			result = append(result, s)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("expected a string or a list of strings, got %T", value)
	}
}
