package storage

import (
	"context"

	"tensordep/internal/model"
)

// Store defines transaction-like persistence operations for registries,
// routed tensors and run summaries.
type Store interface {
	Init(ctx context.Context) error
	SaveRegistry(ctx context.Context, registry model.RegistrySnapshot) error
	GetRegistry(ctx context.Context, id string) (model.RegistrySnapshot, bool, error)
	SaveActivation(ctx context.Context, activation model.ActivationSnapshot) error
	GetActivation(ctx context.Context, registryID string) (model.ActivationSnapshot, bool, error)
	SaveTensor(ctx context.Context, tensor model.TensorSnapshot) error
	GetTensor(ctx context.Context, id string) (model.TensorSnapshot, bool, error)
	SaveRun(ctx context.Context, run model.RunSummary) error
	GetRun(ctx context.Context, runID string) (model.RunSummary, bool, error)
	ListRuns(ctx context.Context) ([]model.RunSummary, error)
}
