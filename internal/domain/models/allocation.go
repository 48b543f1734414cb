package models

// Objective selects the mean-variance problem to solve.
type Objective string

const (
	ObjectiveMaxSharpe     Objective = "max_sharpe"
	ObjectiveMinRisk       Objective = "min_risk"
	ObjectiveEfficientRisk Objective = "efficient_risk"
)

// ParseObjective maps a string to a known objective.
func ParseObjective(s string) (Objective, error) {
	switch o := Objective(s); o {
	case ObjectiveMaxSharpe, ObjectiveMinRisk, ObjectiveEfficientRisk:
		return o, nil
	default:
		return "", &InvalidObjectiveError{Objective: s}
	}
}

// AllocationResult is a cleaned long-only allocation and its performance.
type AllocationResult struct {
	Objective      Objective          `json:"objective"`
	Weights        map[string]float64 `json:"weights"`
	ExpectedReturn float64            `json:"expected_annual_return"`
	Volatility     float64            `json:"annual_volatility"`
	Sharpe         float64            `json:"sharpe_ratio"`
	CurrentWeights map[string]float64 `json:"current_weights,omitempty"`
}
