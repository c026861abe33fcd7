package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type YieldRecord struct {
	Category string `json:"category"`
	Amount   int    `json:"amount"`
}

type AssetRecord struct {
	ID       string        `json:"id"`
	Kind     string        `json:"kind"`
	Capacity int           `json:"capacity,omitempty"`
	Yields   []YieldRecord `json:"yields"`
}

type AssignmentRecord struct {
	AssetID string `json:"asset_id"`
	Count   int    `json:"count"`
}

type SettlementRecord struct {
	VersionedRecord
	Name            string             `json:"name,omitempty"`
	Size            int                `json:"size"`
	BaseYields      []YieldRecord      `json:"base_yields"`
	PerWorkerYields []YieldRecord      `json:"per_worker_yields"`
	Assets          []AssetRecord      `json:"assets"`
	Assignments     []AssignmentRecord `json:"assignments,omitempty"`
}

type RunRecord struct {
	VersionedRecord
	ID             string             `json:"id"`
	CreatedAtUTC   string             `json:"created_at_utc"`
	Settlement     string             `json:"settlement,omitempty"`
	PopulationSize int                `json:"population_size"`
	TournamentSize int                `json:"tournament_size"`
	Generations    int                `json:"generations"`
	MutationRate   float64            `json:"mutation_rate"`
	Seed           int64              `json:"seed"`
	Weights        map[string]float64 `json:"weights"`
	BestFitness    float64            `json:"best_fitness"`
}
