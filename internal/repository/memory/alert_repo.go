package memory

import (
	"context"
	"fmt"
	"sync"

	"fraud_simulator/internal/domain"
	"fraud_simulator/internal/repository"
)

// AlertRepository keeps every alert for the process lifetime. There is no
// capacity bound and no eviction.
type AlertRepository struct {
	mu     sync.RWMutex
	alerts []domain.Alert
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{}
}

func (r *AlertRepository) Append(ctx context.Context, alert domain.Alert) error {
	if alert.TransactionID == "" {
		return fmt.Errorf("%w: transaction id is required", repository.ErrInvalidAlert)
	}
	alert = alert.Clone()

	r.mu.Lock()
	r.alerts = append(r.alerts, alert)
	r.mu.Unlock()

	return nil
}

func (r *AlertRepository) List(ctx context.Context) ([]domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Alert, len(r.alerts))
	for i, alert := range r.alerts {
		result[i] = alert.Clone()
	}
	return result, nil
}

func (r *AlertRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.alerts), nil
}
