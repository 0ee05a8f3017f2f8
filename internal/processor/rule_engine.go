package processor

import (
	"fmt"
	"fraud_simulator/internal/domain"
	"strings"
)

const (
	FieldAmount   = "amount"
	FieldCurrency = "currency"
	FieldChannel  = "channel"
	FieldAccount  = "account_id"
)

// Condition compares one transaction field with a constant.
type Condition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

type predicate func(domain.TransactionRequest) bool

func compileCondition(c Condition) (predicate, error) {
	switch c.Field {
	case FieldAmount:
		return compileNumericCondition(c, func(req domain.TransactionRequest) float64 { return req.Amount })
	case FieldCurrency:
		return compileStringCondition(c, func(req domain.TransactionRequest) string { return req.Currency })
	case FieldChannel:
		return compileStringCondition(c, func(req domain.TransactionRequest) string { return req.Channel })
	case FieldAccount:
		return compileStringCondition(c, func(req domain.TransactionRequest) string { return req.AccountID })
	default:
		return nil, fmt.Errorf("unknown field: %s", c.Field)
	}
}

func compileNumericCondition(c Condition, field func(domain.TransactionRequest) float64) (predicate, error) {
	target, ok := toFloat(c.Value)
	if !ok {
		return nil, fmt.Errorf("invalid value type for numeric field %s: %v", c.Field, c.Value)
	}

	var cmp func(v float64) bool
	switch c.Operator {
	case ">":
		cmp = func(v float64) bool { return v > target }
	case ">=":
		cmp = func(v float64) bool { return v >= target }
	case "<":
		cmp = func(v float64) bool { return v < target }
	case "<=":
		cmp = func(v float64) bool { return v <= target }
	case "==":
		cmp = func(v float64) bool { return v == target }
	case "!=":
		cmp = func(v float64) bool { return v != target }
	default:
		return nil, fmt.Errorf("unknown operator: %s", c.Operator)
	}

	return func(req domain.TransactionRequest) bool { return cmp(field(req)) }, nil
}

func compileStringCondition(c Condition, field func(domain.TransactionRequest) string) (predicate, error) {
	target, ok := c.Value.(string)
	if !ok {
		return nil, fmt.Errorf("invalid value type for string field %s: %v", c.Field, c.Value)
	}

	var cmp func(v string) bool
	switch c.Operator {
	case "==":
		cmp = func(v string) bool { return v == target }
	case "!=":
		cmp = func(v string) bool { return v != target }
	case "equals_fold":
		cmp = func(v string) bool { return strings.EqualFold(v, target) }
	default:
		return nil, fmt.Errorf("unknown operator: %s", c.Operator)
	}

	return func(req domain.TransactionRequest) bool { return cmp(field(req)) }, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
