package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/avaldezm/marketbox-backend/pkg/enums"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
)

// CreateMatch turns an accepted proposal into a match record.
func (c *Client) CreateMatch(ctx context.Context, proposalID string) (*Match, error) {
	trimmed := strings.TrimSpace(proposalID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposal ID is required")
	}

	body := struct {
		ProposalID string `json:"proposalId"`
	}{ProposalID: trimmed}

	var match Match
	if err := c.doWrite(ctx, "create_match", http.MethodPost, "/api/matches", body, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// DecideMatch records the accept/reject decision for a match.
func (c *Client) DecideMatch(ctx context.Context, matchID string, decision enums.MatchDecision) (*Match, error) {
	trimmed := strings.TrimSpace(matchID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "match ID is required")
	}
	if !decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid match decision %q", decision))
	}

	body := struct {
		ID     string              `json:"id"`
		Status enums.MatchDecision `json:"status"`
	}{ID: trimmed, Status: decision}

	var match Match
	if err := c.doWrite(ctx, "decide_match", http.MethodPut, "/api/matches", body, &match); err != nil {
		return nil, err
	}
	return &match, nil
}
