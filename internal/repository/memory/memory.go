package memory

import (
	"fraud_simulator/internal/repository"
)

var (
	_ repository.AlertRepository = (*AlertRepository)(nil)
)
