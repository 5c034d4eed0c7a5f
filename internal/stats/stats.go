// Package stats computes the result of a planning poker round from its votes.
package stats

import (
	"math"
	"sort"

	"planningpoker/internal/models"
)

// Compute aggregates votes against the game's playable cards. It is a pure
// function: the same votes and cards always yield the same result, and the
// numeric fields do not depend on the order of votes.
//
// Variance holds the population standard deviation, sqrt(mean((v-avg)^2)).
// SuggestedCard is the lowest playable card whose value is at least the average.
func Compute(votes []models.Vote, playableCards []models.Card) *models.RoundResult {
	result := &models.RoundResult{
		Votes:    append([]models.Vote{}, votes...),
		MinVotes: []models.Vote{},
		MaxVotes: []models.Vote{},
	}
	if len(votes) == 0 {
		return result
	}

	values := make([]int, len(votes))
	for i, v := range votes {
		values[i] = v.Card.Value
	}
	sort.Ints(values)

	minValue, maxValue := values[0], values[len(values)-1]
	result.MinVoteValue = &minValue
	result.MaxVoteValue = &maxValue

	for _, v := range votes {
		if v.Card.Value == minValue {
			result.MinVotes = append(result.MinVotes, v)
		}
		if v.Card.Value == maxValue {
			result.MaxVotes = append(result.MaxVotes, v)
		}
	}

	average := mean(values)
	if math.IsNaN(average) {
		return result
	}
	result.AverageVote = &average

	if variance := stdDev(values, average); !math.IsNaN(variance) {
		result.Variance = &variance
	}

	result.SuggestedCard = suggestCard(playableCards, average)
	return result
}

// mean expects values sorted ascending so float summation order is fixed
func mean(values []int) float64 {
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

func stdDev(values []int, average float64) float64 {
	var sum float64
	for _, v := range values {
		d := float64(v) - average
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func suggestCard(playableCards []models.Card, average float64) *models.Card {
	sorted := make([]models.Card, len(playableCards))
	copy(sorted, playableCards)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	for _, c := range sorted {
		if float64(c.Value) >= average {
			card := c
			return &card
		}
	}
	return nil
}
