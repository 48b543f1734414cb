package models

import "time"

// Registered model names.
const (
	ModelNavPredictor       = "nav_predictor"
	ModelPortfolioOptimizer = "portfolio_optimizer"
	ModelRiskScorer         = "risk_scorer"
)

// ModelArtifact is an immutable snapshot of a trained model.
type ModelArtifact struct {
	Name     string
	Version  string
	State    []byte
	LoadedAt time.Time
	SavedAt  time.Time
}

// ModelStatus is the observable state of one registered model.
type ModelStatus struct {
	Version  string     `json:"version"`
	Loaded   bool       `json:"loaded"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	SavedAt  *time.Time `json:"saved_at,omitempty"`
}

// RetrainState is the lifecycle of a retrain run.
type RetrainState string

const (
	RetrainRunning RetrainState = "running"
	RetrainDone    RetrainState = "done"
	RetrainPartial RetrainState = "partial"
	RetrainFailed  RetrainState = "failed"
)

// RetrainTicket acknowledges an asynchronous retrain run.
type RetrainTicket struct {
	ID         string            `json:"id"`
	State      RetrainState      `json:"state"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Results    map[string]string `json:"results,omitempty"`
}

// ModelEvent is published when the registry changes an artifact.
type ModelEvent struct {
	Type      string    `json:"type"` // "model.saved", "retrain.finished"
	Model     string    `json:"model,omitempty"`
	Version   string    `json:"version,omitempty"`
	TicketID  string    `json:"ticket_id,omitempty"`
	State     string    `json:"state,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Dashboard is the combined per-user view.
type Dashboard struct {
	UserID          string                 `json:"user_id"`
	PortfolioRisk   *PortfolioRiskScore    `json:"portfolio_risk"`
	Recommendations []Recommendation       `json:"recommendations"`
	Models          map[string]ModelStatus `json:"models"`
}

// HealthStatus reports backing store reachability and model state.
type HealthStatus struct {
	Status string                 `json:"status"` // "healthy" or "degraded"
	Stores map[string]string      `json:"stores"`
	Models map[string]ModelStatus `json:"models"`
}
