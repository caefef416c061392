// Package validator turns the model's decoded JSON answer into a bounded,
// typed list of suggestions.
package validator

import (
	"errors"
	"strings"

	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/domain"
)

// Structural faults abort validation entirely.
var (
	ErrMissingSuggestions  = errors.New("Missing suggestions in response.")
	ErrSuggestionsNotArray = errors.New("Suggestions should be an array.")
)

// RejectReason explains why a single item was dropped. Empty means accepted.
type RejectReason string

const (
	Accepted           RejectReason = ""
	NotAnObject        RejectReason = "not_an_object"
	HandleNotString    RejectReason = "handle_not_string"
	RationaleNotString RejectReason = "rationale_not_string"
	EmptyHandle        RejectReason = "empty_handle"
	EmptyRationale     RejectReason = "empty_rationale"
)

// ItemResult is the classification of one raw suggestion entry.
type ItemResult struct {
	Suggestion domain.Suggestion
	Reason     RejectReason
}

func (r ItemResult) Accepted() bool {
	return r.Reason == Accepted
}

// Classify checks a single raw entry and normalizes it when valid.
func Classify(item any) ItemResult {
	obj, ok := item.(map[string]any)
	if !ok {
		return ItemResult{Reason: NotAnObject}
	}

	handle, ok := obj["handle"].(string)
	if !ok {
		return ItemResult{Reason: HandleNotString}
	}
	rationale, ok := obj["rationale"].(string)
	if !ok {
		return ItemResult{Reason: RationaleNotString}
	}

	s := domain.Suggestion{
		Handle:    strings.TrimSpace(handle),
		Rationale: strings.TrimSpace(rationale),
	}
	switch {
	case s.Handle == "":
		return ItemResult{Reason: EmptyHandle}
	case s.Rationale == "":
		return ItemResult{Reason: EmptyRationale}
	}
	return ItemResult{Suggestion: s}
}

// ClassifyAll returns one result per raw entry, in input order.
func ClassifyAll(input any) ([]ItemResult, error) {
	raw, err := suggestionsArray(input)
	if err != nil {
		return nil, err
	}

	out := make([]ItemResult, 0, len(raw))
	for _, item := range raw {
		out = append(out, Classify(item))
	}
	return out, nil
}

// Validate extracts at most domain.MaxSuggestions well-formed suggestions
// from input, preserving order. Malformed entries are dropped silently; a
// missing or non-array "suggestions" field is an error.
func Validate(input any) ([]domain.Suggestion, error) {
	raw, err := suggestionsArray(input)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Suggestion, 0, min(len(raw), domain.MaxSuggestions))
	for _, item := range raw {
		if len(out) == domain.MaxSuggestions {
			break
		}
		if r := Classify(item); r.Accepted() {
			out = append(out, r.Suggestion)
		}
	}
	return out, nil
}

func suggestionsArray(input any) ([]any, error) {
	obj, ok := input.(map[string]any)
	if !ok {
		return nil, ErrMissingSuggestions
	}
	field, ok := obj["suggestions"]
	if !ok {
		return nil, ErrMissingSuggestions
	}
	raw, ok := field.([]any)
	if !ok {
		return nil, ErrSuggestionsNotArray
	}
	return raw, nil
}
