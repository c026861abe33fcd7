package storage

import (
	"context"

	"oikonomos/internal/model"
)

// Store persists completed-run artifacts: run settings, the per-generation
// fitness trace, and the best settlement snapshot. In-progress search state
// is never stored.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveBestSettlement(ctx context.Context, runID string, record model.SettlementRecord) error
	GetBestSettlement(ctx context.Context, runID string) (model.SettlementRecord, bool, error)
}

// Closer is implemented by stores holding external resources.
type Closer interface {
	Close() error
}

func CloseIfSupported(store Store) error {
	if closer, ok := store.(Closer); ok {
		return closer.Close()
	}
	return nil
}
