package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var ErrUnrecognizedCondition = errors.New("unrecognized branch condition")

// BranchCondition is a dynamic visibility rule attached to a question.
// The set of implementations is closed: DimensionThreshold and ResponsePattern.
type BranchCondition interface {
	isBranchCondition()
}

// DimensionThreshold requires an accumulated dimension score within [Min, Max];
// a nil bound is unbounded on that side.
type DimensionThreshold struct {
	Dimension string
	Min       *float64
	Max       *float64
}

func (DimensionThreshold) isBranchCondition() {}

// Contains reports whether score lies within the threshold bounds
func (d DimensionThreshold) Contains(score float64) bool {
	if d.Min != nil && score < *d.Min {
		return false
	}
	if d.Max != nil && score > *d.Max {
		return false
	}
	return true
}

// ResponsePattern is declared by catalog authors but has no evaluation rule yet.
type ResponsePattern struct {
	Raw json.RawMessage
}

func (ResponsePattern) isBranchCondition() {}

// branchConditionRow is the stored jsonb shape
type branchConditionRow struct {
	RequiresDimension       *string         `json:"requires_dimension"`
	MinScore                *float64        `json:"min_score"`
	MaxScore                *float64        `json:"max_score"`
	RequiresResponsePattern json.RawMessage `json:"requires_response_pattern"`
}

var knownConditionKeys = map[string]bool{
	"requires_dimension":        true,
	"min_score":                 true,
	"max_score":                 true,
	"requires_response_pattern": true,
}

// ParseBranchCondition decodes a stored condition. Empty, null and {} mean no condition.
func ParseBranchCondition(raw []byte) (BranchCondition, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("invalid branch_condition: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	// an unknown key means a condition kind we cannot evaluate, whatever else is present
	for _, key := range sortedKeys(keys) {
		if !knownConditionKeys[key] {
			return nil, fmt.Errorf("%w: unknown key %q", ErrUnrecognizedCondition, key)
		}
	}

	var row branchConditionRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("invalid branch_condition: %w", err)
	}

	if row.RequiresDimension != nil && *row.RequiresDimension != "" {
		return DimensionThreshold{
			Dimension: *row.RequiresDimension,
			Min:       row.MinScore,
			Max:       row.MaxScore,
		}, nil
	}

	if len(row.RequiresResponsePattern) > 0 && string(row.RequiresResponsePattern) != "null" {
		return ResponsePattern{Raw: row.RequiresResponsePattern}, nil
	}

	// only bounds or explicit nulls: nothing to evaluate
	if row.MinScore != nil || row.MaxScore != nil {
		return nil, fmt.Errorf("%w: score bounds without requires_dimension", ErrUnrecognizedCondition)
	}
	return nil, nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
