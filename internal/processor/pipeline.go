package processor

import (
	"context"
	"fmt"
	"fraud_simulator/internal/domain"
	"fraud_simulator/internal/logging"
	"fraud_simulator/internal/repository"
	"fraud_simulator/pkg/clock"
	"fraud_simulator/pkg/metrics"
	"fraud_simulator/pkg/tracing"
	"fraud_simulator/pkg/validator"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LatencyBudget is advisory: exceeding it only flags the log record.
const LatencyBudget = 200 * time.Millisecond

const (
	EndpointHealth       = "health"
	EndpointTransactions = "transactions"
	EndpointAlerts       = "alerts"
)

const (
	msgRateLimited      = "rate limit exceeded"
	msgMethodNotAllowed = "method not allowed"
	msgInvalidJSON      = "invalid json"
	msgInternalError    = "internal error"
)

type RateLimiter interface {
	Allow(key string) bool
}

type AlertNotifier interface {
	Notify(alert domain.Alert) bool
}

// Inbound is the transport-neutral view of one request.
type Inbound struct {
	Method       string
	ForwardedFor string
	RealIP       string
	RemoteAddr   string
	Body         io.Reader
}

func (in Inbound) ClientKey() string {
	return ClientKey(in.ForwardedFor, in.RealIP, in.RemoteAddr)
}

// Outcome is the status and payload the transport must encode.
type Outcome struct {
	Status  int
	Payload any
}

type Pipeline struct {
	limiter    RateLimiter
	validator  *validator.TransactionValidator
	scorer     *Scorer
	alerts     repository.AlertRepository
	notifier   AlertNotifier
	metrics    *metrics.MetricsCollector
	clock      clock.Clock
	newTraceID func() string
	budget     time.Duration
	logger     *slog.Logger
}

type Option func(*Pipeline)

func WithClock(c clock.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithNotifier forwards every stored alert to n after the store append.
func WithNotifier(n AlertNotifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

func WithTraceIDGenerator(fn func() string) Option {
	return func(p *Pipeline) { p.newTraceID = fn }
}

func NewPipeline(
	limiter RateLimiter,
	scorer *Scorer,
	alerts repository.AlertRepository,
	metricsCollector *metrics.MetricsCollector,
	logger *slog.Logger,
	opts ...Option,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if scorer == nil {
		scorer = DefaultScorer()
	}
	if metricsCollector == nil {
		metricsCollector = metrics.NewMetricsCollector(logger)
	}

	p := &Pipeline{
		limiter:    limiter,
		validator:  validator.NewTransactionValidator(),
		scorer:     scorer,
		alerts:     alerts,
		metrics:    metricsCollector,
		clock:      clock.Real{},
		newTraceID: uuid.NewString,
		budget:     LatencyBudget,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// call carries the per-request state that ends up in the log record.
type call struct {
	ctx      context.Context
	span     trace.Span
	endpoint string
	start    time.Time
	entry    logging.Entry
	done     bool
}

func (p *Pipeline) begin(ctx context.Context, endpoint string, in Inbound) *call {
	start := p.clock.Now()
	traceID := p.newTraceID()

	ctx = logging.WithRequestID(ctx, traceID)
	ctx, span := tracing.StartSpan(ctx, "pipeline."+endpoint,
		tracing.TraceID(traceID),
		tracing.ClientKey(in.ClientKey()))

	return &call{
		ctx:      ctx,
		span:     span,
		endpoint: endpoint,
		start:    start,
		entry:    logging.Entry{TraceID: traceID},
	}
}

func (p *Pipeline) finish(c *call, message string, status int, payload any) Outcome {
	c.done = true
	duration := clock.Since(p.clock, c.start)

	c.entry.Message = message
	c.entry.Status = status
	c.entry.Budget = p.budget
	c.entry.Duration = duration
	c.entry.BudgetExceeded = duration > p.budget

	logging.LogRequest(c.ctx, p.logger, c.entry)
	p.metrics.RecordRequest(c.endpoint, status, duration, c.entry.BudgetExceeded)

	c.span.SetAttributes(tracing.Status(status))
	if status >= http.StatusInternalServerError {
		c.span.SetStatus(codes.Error, message)
	}
	c.span.End()

	return Outcome{Status: status, Payload: payload}
}

func (p *Pipeline) fail(c *call, message string, status int, errMsg, code string) Outcome {
	return p.finish(c, message, status, domain.ErrorResponse{Error: errMsg, Code: code})
}

// recoverPanic turns a panic in an operation into a 500 outcome so that the
// request still gets a response and a log record.
func (p *Pipeline) recoverPanic(c *call, out *Outcome) {
	r := recover()
	if r == nil {
		return
	}
	p.logger.ErrorContext(c.ctx, "Pipeline panic recovered",
		slog.String("endpoint", c.endpoint),
		slog.String("panic", fmt.Sprint(r)))
	if !c.done {
		c.span.RecordError(fmt.Errorf("panic: %v", r))
		*out = p.fail(c, msgInternalError, http.StatusInternalServerError, msgInternalError, domain.CodeInternalError)
		return
	}
	*out = Outcome{
		Status:  http.StatusInternalServerError,
		Payload: domain.ErrorResponse{Error: msgInternalError, Code: domain.CodeInternalError},
	}
}

func (p *Pipeline) admit(c *call, in Inbound) bool {
	if p.limiter.Allow(in.ClientKey()) {
		return true
	}
	p.metrics.RecordRateLimited(c.endpoint)
	return false
}

func (p *Pipeline) rateLimited(c *call) Outcome {
	return p.fail(c, msgRateLimited, http.StatusTooManyRequests, msgRateLimited, domain.CodeRateLimited)
}

func (p *Pipeline) methodNotAllowed(c *call) Outcome {
	return p.fail(c, msgMethodNotAllowed, http.StatusMethodNotAllowed, msgMethodNotAllowed, domain.CodeMethodNotAllowed)
}

// ProcessTransaction runs rate limit, decode, validation and scoring for a
// transaction submission, storing an alert when the decision is block.
func (p *Pipeline) ProcessTransaction(ctx context.Context, in Inbound) (out Outcome) {
	c := p.begin(ctx, EndpointTransactions, in)
	defer p.recoverPanic(c, &out)

	if !p.admit(c, in) {
		return p.rateLimited(c)
	}
	if !strings.EqualFold(in.Method, http.MethodPost) {
		return p.methodNotAllowed(c)
	}

	payload, err := DecodeTransaction(in.Body)
	if err != nil {
		p.logger.DebugContext(c.ctx, "Payload rejected", slog.String("error", err.Error()))
		return p.fail(c, "invalid request", http.StatusBadRequest, msgInvalidJSON, domain.CodeInvalidRequest)
	}
	c.entry.TransactionID = payload.TransactionID

	req, err := p.validator.Validate(payload)
	if err != nil {
		return p.fail(c, "validation failed", http.StatusBadRequest, err.Error(), domain.CodeValidationError)
	}

	result := p.scorer.Score(req)
	c.entry.Decision = string(result.Decision)
	c.span.SetAttributes(
		tracing.TransactionID(req.TransactionID),
		tracing.Decision(string(result.Decision)),
		tracing.Score(result.Score))
	p.metrics.RecordDecision(string(result.Decision), result.Score)

	if result.Blocked() {
		if err := p.storeAlert(c.ctx, domain.NewAlert(req.TransactionID, result)); err != nil {
			c.span.RecordError(err)
			p.logger.ErrorContext(c.ctx, "Failed to store alert",
				slog.String("transaction_id", req.TransactionID),
				slog.String("error", err.Error()))
			return p.fail(c, msgInternalError, http.StatusInternalServerError, msgInternalError, domain.CodeInternalError)
		}
	}

	return p.finish(c, "transaction scored", http.StatusOK, domain.TransactionResponse{
		TransactionID: req.TransactionID,
		TraceID:       c.entry.TraceID,
		Score:         result.Score,
		Decision:      result.Decision,
		Rules:         result.Rules,
	})
}

func (p *Pipeline) storeAlert(ctx context.Context, alert domain.Alert) error {
	if err := p.alerts.Append(ctx, alert); err != nil {
		return fmt.Errorf("failed to append alert: %w", err)
	}
	p.metrics.RecordAlertStored()
	if p.notifier != nil {
		p.notifier.Notify(alert)
	}
	return nil
}

// ListAlerts returns the alert store snapshot.
func (p *Pipeline) ListAlerts(ctx context.Context, in Inbound) (out Outcome) {
	c := p.begin(ctx, EndpointAlerts, in)
	defer p.recoverPanic(c, &out)

	if !p.admit(c, in) {
		return p.rateLimited(c)
	}
	if !strings.EqualFold(in.Method, http.MethodGet) {
		return p.methodNotAllowed(c)
	}

	alerts, err := p.alerts.List(c.ctx)
	if err != nil {
		c.span.RecordError(err)
		p.logger.ErrorContext(c.ctx, "Failed to list alerts", slog.String("error", err.Error()))
		return p.fail(c, msgInternalError, http.StatusInternalServerError, msgInternalError, domain.CodeInternalError)
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}

	return p.finish(c, "alerts listed", http.StatusOK, domain.AlertsResponse{Alerts: alerts})
}

func (p *Pipeline) Health(ctx context.Context, in Inbound) (out Outcome) {
	c := p.begin(ctx, EndpointHealth, in)
	defer p.recoverPanic(c, &out)

	if !p.admit(c, in) {
		return p.rateLimited(c)
	}
	return p.finish(c, "health check", http.StatusOK, domain.StatusResponse{Status: "ok"})
}
