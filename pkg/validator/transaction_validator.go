package validator

import (
	"fraud_simulator/internal/domain"
	"strings"
)

const (
	MsgTransactionIDRequired = "transactionId is required"
	MsgAccountIDRequired     = "accountId is required"
	MsgAmountNotPositive     = "amount must be > 0"
	MsgCurrencyRequired      = "currency is required"
)

// ValidationError lists every violated field constraint in check order.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

type TransactionValidator struct{}

func NewTransactionValidator() *TransactionValidator {
	return &TransactionValidator{}
}

// Validate checks p and, when every constraint holds, returns the
// corresponding TransactionRequest. On failure the error is a
// *ValidationError carrying all violations, not only the first.
func (v *TransactionValidator) Validate(p domain.TransactionPayload) (domain.TransactionRequest, error) {
	var violations []string

	if isBlank(p.TransactionID) {
		violations = append(violations, MsgTransactionIDRequired)
	}
	if isBlank(p.AccountID) {
		violations = append(violations, MsgAccountIDRequired)
	}
	if !(p.Amount > 0) {
		violations = append(violations, MsgAmountNotPositive)
	}
	if isBlank(p.Currency) {
		violations = append(violations, MsgCurrencyRequired)
	}

	if len(violations) > 0 {
		return domain.TransactionRequest{}, &ValidationError{Violations: violations}
	}

	return domain.TransactionRequest{
		TransactionID: p.TransactionID,
		AccountID:     p.AccountID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Channel:       p.Channel,
	}, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
