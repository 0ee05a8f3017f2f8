package domain

type TransactionResponse struct {
	TransactionID string   `json:"transactionId"`
	TraceID       string   `json:"traceId"`
	Score         float64  `json:"score"`
	Decision      Decision `json:"decision"`
	Rules         []string `json:"rules"`
}

type AlertsResponse struct {
	Alerts []Alert `json:"alerts"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	CodeRateLimited      = "RATE_LIMITED"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeUnavailable      = "UNAVAILABLE"
)
