package domain

import (
	"encoding/json"
	"sort"
)

// Answer is a user's submitted answer to one question: either a single option
// index or a list of indices for multi-select questions. On the wire it is a
// bare number or an array of numbers, matching what clients send.
type Answer struct {
	indices []int
	scalar  bool
}

// NewAnswer builds a multi-select answer.
func NewAnswer(indices ...int) Answer {
	return Answer{indices: indices}
}

// NewScalarAnswer builds a single-choice answer.
func NewScalarAnswer(index int) Answer {
	return Answer{indices: []int{index}, scalar: true}
}

// Indices returns the submitted option indices as given.
func (a Answer) Indices() []int {
	return a.indices
}

// Normalized returns the submitted indices as a sorted set, dropping
// duplicates. Correctness and answer-distribution counting both operate on
// this form, so submission order and repeated indices never matter.
func (a Answer) Normalized() []int {
	return NormalizeIndices(a.indices)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var single int
	if err := json.Unmarshal(data, &single); err == nil {
		*a = NewScalarAnswer(single)
		return nil
	}
	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = NewAnswer(many...)
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.scalar && len(a.indices) == 1 {
		return json.Marshal(a.indices[0])
	}
	return json.Marshal(a.indices)
}

// UserAnswers maps question id to the user's submitted answer.
type UserAnswers map[string]Answer

// NormalizeIndices returns a sorted copy of indices with duplicates removed.
func NormalizeIndices(indices []int) []int {
	if len(indices) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
