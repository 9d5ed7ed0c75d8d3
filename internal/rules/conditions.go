// internal/rules/conditions.go
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"maintenance-dispatch/internal/models"
)

// EvalCondition evaluates one field/operator/value predicate against the
// snapshot. Every failure mode (unknown operator, unresolvable path,
// non-numeric operand) evaluates false rather than erroring: a broken
// condition must never accidentally fire a rule.
func EvalCondition(snapshot *models.Snapshot, cond models.RuleCondition) bool {
	fieldValue, resolved := Resolve(snapshot, cond.Field)

	var condValue interface{}
	if len(cond.Value) > 0 {
		if err := json.Unmarshal(cond.Value, &condValue); err != nil {
			return false
		}
	}

	switch cond.Operator {
	case "equals":
		if !resolved {
			return false
		}
		return valuesEqual(fieldValue, condValue)

	case "contains":
		if !resolved {
			return false
		}
		return strings.Contains(
			strings.ToLower(stringify(fieldValue)),
			strings.ToLower(stringify(condValue)),
		)

	case "greater_than":
		fieldNum, ok1 := toNumber(fieldValue)
		condNum, ok2 := toNumber(condValue)
		return resolved && ok1 && ok2 && fieldNum > condNum

	case "less_than":
		fieldNum, ok1 := toNumber(fieldValue)
		condNum, ok2 := toNumber(condValue)
		return resolved && ok1 && ok2 && fieldNum < condNum

	case "in":
		list, ok := condValue.([]interface{})
		if !ok {
			return false
		}
		for _, member := range list {
			if !resolved && member == nil {
				return true // explicit null entry matches a missing field
			}
			if resolved && valuesEqual(fieldValue, member) {
				return true
			}
		}
		return false

	default:
		return false
	}
}

// MatchesAll reports whether every condition on the rule holds (AND).
func MatchesAll(snapshot *models.Snapshot, conditions []models.RuleCondition) bool {
	for _, cond := range conditions {
		if !EvalCondition(snapshot, cond) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b interface{}) bool {
	// Numeric values compare as numbers so 5 == 5.0 across JSON decoding.
	if aNum, ok := toNumber(a); ok {
		if bNum, ok := toNumber(b); ok {
			return aNum == bNum
		}
		return false
	}
	if aBool, ok := a.(bool); ok {
		bBool, ok := b.(bool)
		return ok && aBool == bBool
	}
	aStr, aOk := a.(string)
	bStr, bOk := b.(string)
	if aOk && bOk {
		return aStr == bStr
	}
	return false
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}
