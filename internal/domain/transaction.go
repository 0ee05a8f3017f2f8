package domain

type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionBlock Decision = "block"
)

// TransactionPayload is the decoded request body before field validation.
type TransactionPayload struct {
	TransactionID string  `json:"transactionId"`
	AccountID     string  `json:"accountId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Channel       string  `json:"channel"`
}

// TransactionRequest is a payload that passed validation. Build one with
// validator.TransactionValidator; it is passed by value and never mutated.
type TransactionRequest struct {
	TransactionID string
	AccountID     string
	Amount        float64
	Currency      string
	Channel       string
}

type ScoringResult struct {
	Score    float64
	Decision Decision
	Rules    []string
}

func (r ScoringResult) Blocked() bool {
	return r.Decision == DecisionBlock
}

type Alert struct {
	TransactionID string   `json:"transactionId"`
	Score         float64  `json:"score"`
	Rules         []string `json:"rules"`
}

func NewAlert(transactionID string, result ScoringResult) Alert {
	return Alert{
		TransactionID: transactionID,
		Score:         result.Score,
		Rules:         append([]string(nil), result.Rules...),
	}
}

// Clone returns a copy that shares no memory with a.
func (a Alert) Clone() Alert {
	a.Rules = append([]string(nil), a.Rules...)
	return a
}
