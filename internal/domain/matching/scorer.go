package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE
// ══════════════════════════════════════════════════════════════════════════════

// Component caps. They sum to 100.
const (
	MaxWeightPoints     = 30.0
	MaxFightsPoints     = 30.0
	MaxExperiencePoints = 20.0
	MaxLocationPoints   = 20.0

	// MissingWeightPoints is awarded when either boxer has no weight.
	MissingWeightPoints = 15.0

	adjacentExperiencePoints = 10.0
	sameCountryPoints        = 10.0
)

// Score is the compatibility of a candidate against a source boxer.
// It is computed on demand and never persisted.
type Score struct {
	BoxerID string `json:"boxer_id"`

	// Value is the rounded total, 0..100.
	Value int `json:"score"`

	// WeightDiffKg is nil when either boxer has no weight.
	WeightDiffKg *float64 `json:"weight_diff_kg,omitempty"`
	FightsDiff   int      `json:"fights_diff"`

	SameCity             bool `json:"same_city"`
	SameCountry          bool `json:"same_country"`
	ExperienceCompatible bool `json:"experience_compatible"`
}

// Quality returns a qualitative label for the score.
func (s Score) Quality() Quality {
	switch {
	case s.Value >= 80:
		return QualityExcellent
	case s.Value >= 60:
		return QualityGood
	case s.Value >= 40:
		return QualityFair
	case s.Value >= 20:
		return QualityPoor
	default:
		return QualityNone
	}
}

// Quality is a coarse bucket of the numeric score.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
	QualityNone      Quality = "none"
)

// Verdict is the result of the hard tolerance filter.
type Verdict struct {
	Compatible bool
	Reason     string
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORER
// ══════════════════════════════════════════════════════════════════════════════

// Scorer computes compatibility scores. It is pure and safe for concurrent use.
type Scorer struct {
	policy Policy
}

// NewScorer creates a scorer bound to the given policy.
func NewScorer(policy Policy) *Scorer {
	return &Scorer{policy: policy}
}

// Policy returns the policy the scorer was built with.
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Score rates candidate against source.
func (s *Scorer) Score(source, candidate *boxer.Boxer) Score {
	result := Score{BoxerID: candidate.ID}

	var total float64

	// Weight
	if source.HasWeight() && candidate.HasWeight() {
		diff := roundKg(math.Abs(*source.WeightKg - *candidate.WeightKg))
		result.WeightDiffKg = &diff
		total += falloff(diff, s.policy.WeightToleranceKg, MaxWeightPoints)
	} else {
		total += MissingWeightPoints
	}

	// Fights
	fightsDiff := absInt(source.TotalFights() - candidate.TotalFights())
	result.FightsDiff = fightsDiff
	total += falloff(float64(fightsDiff), float64(s.policy.FightsTolerance), MaxFightsPoints)

	// Experience
	result.ExperienceCompatible = source.Experience.IsCompatibleWith(candidate.Experience)
	if result.ExperienceCompatible {
		if source.Experience == candidate.Experience {
			total += MaxExperiencePoints
		} else {
			total += adjacentExperiencePoints
		}
	}

	// Location: city wins over country, never both.
	result.SameCity = sameLocation(source.City, candidate.City)
	result.SameCountry = sameLocation(source.Country, candidate.Country)
	switch {
	case result.SameCity:
		total += MaxLocationPoints
	case result.SameCountry:
		total += sameCountryPoints
	}

	result.Value = int(math.Round(total))
	return result
}

// CheckTolerance applies the hard weight and fights filters to a computed score.
func (s *Scorer) CheckTolerance(score Score) Verdict {
	if score.WeightDiffKg != nil && *score.WeightDiffKg > s.policy.WeightToleranceKg {
		return Verdict{
			Reason: fmt.Sprintf("weight difference %.1f kg exceeds the %.1f kg tolerance",
				*score.WeightDiffKg, s.policy.WeightToleranceKg),
		}
	}
	if score.FightsDiff > s.policy.FightsTolerance {
		return Verdict{
			Reason: fmt.Sprintf("fight count difference %d exceeds the tolerance of %d",
				score.FightsDiff, s.policy.FightsTolerance),
		}
	}
	return Verdict{Compatible: true}
}

// Evaluate scores the pair and applies the hard filter in one step.
func (s *Scorer) Evaluate(source, candidate *boxer.Boxer) (Score, Verdict) {
	score := s.Score(source, candidate)
	return score, s.CheckTolerance(score)
}

// falloff awards max points at zero difference, decreasing linearly to zero
// at the tolerance. A zero tolerance only rewards an exact match.
func falloff(diff, tolerance, max float64) float64 {
	if tolerance <= 0 {
		if diff == 0 {
			return max
		}
		return 0
	}
	if diff > tolerance {
		return 0
	}
	return max * (1 - diff/tolerance)
}

// roundKg rounds to the 0.01 kg precision weights are stored with, so a pair
// exactly at the tolerance is not pushed over it by float error.
func roundKg(kg float64) float64 {
	return math.Round(kg*100) / 100
}

func sameLocation(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
