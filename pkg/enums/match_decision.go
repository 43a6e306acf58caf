package enums

import "fmt"

// MatchDecision is the action a customer takes on a delivery match proposal.
type MatchDecision string

const (
	MatchDecisionAccept MatchDecision = "ACCEPTED"
	MatchDecisionReject MatchDecision = "REJECTED"
)

var validMatchDecisions = []MatchDecision{
	MatchDecisionAccept,
	MatchDecisionReject,
}

// IsValid reports whether the value is a known MatchDecision.
func (m MatchDecision) IsValid() bool {
	for _, candidate := range validMatchDecisions {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMatchDecision converts raw input into a MatchDecision.
func ParseMatchDecision(value string) (MatchDecision, error) {
	for _, candidate := range validMatchDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match decision %q", value)
}
