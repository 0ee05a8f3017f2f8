package repository

import (
	"context"
	"errors"
	"fraud_simulator/internal/domain"
)

// AlertRepository is an append-only log of blocked transactions.
type AlertRepository interface {
	Append(ctx context.Context, alert domain.Alert) error
	// List returns an independent snapshot in append order.
	List(ctx context.Context) ([]domain.Alert, error)
	Count(ctx context.Context) (int, error)
}

var (
	ErrInvalidAlert = errors.New("invalid alert")
)
