package review

import (
	"fmt"

	"github.com/lectorhq/lector/internal/models"
)

// dimensionWeights holds the per-dimension weight set for one content type
type dimensionWeights struct {
	Depth        float64
	Accuracy     float64
	Completeness float64
	Logic        float64
	Readability  float64
}

// Weight sets per content type. A tutorial lives or dies by depth and
// accuracy; popular science by readability; news by accuracy.
var weightConfigs = map[models.ContentType]dimensionWeights{
	models.ContentTypeTechnicalTutorial: {Depth: 0.25, Accuracy: 0.25, Completeness: 0.15, Logic: 0.15, Readability: 0.20},
	models.ContentTypeSciencePopular:    {Depth: 0.15, Accuracy: 0.20, Completeness: 0.15, Logic: 0.15, Readability: 0.35},
	models.ContentTypeDocumentation:     {Depth: 0.20, Accuracy: 0.30, Completeness: 0.25, Logic: 0.15, Readability: 0.10},
	models.ContentTypeNews:              {Depth: 0.10, Accuracy: 0.35, Completeness: 0.20, Logic: 0.15, Readability: 0.20},
	models.ContentTypeOpinion:           {Depth: 0.20, Accuracy: 0.15, Completeness: 0.15, Logic: 0.30, Readability: 0.20},
	models.ContentTypeUnknown:           {Depth: 0.20, Accuracy: 0.20, Completeness: 0.20, Logic: 0.20, Readability: 0.20},
}

// ScoreAggregator combines the evaluator results into one weighted score
type ScoreAggregator struct {
	customWeights *dimensionWeights
}

// NewScoreAggregator creates an aggregator using the per-content-type weights
func NewScoreAggregator() *ScoreAggregator {
	return &ScoreAggregator{}
}

// NewScoreAggregatorWithWeights creates an aggregator that applies one fixed
// weight set to every content type. Weights are normalized by their sum; a
// non-positive sum falls back to the per-content-type table.
func NewScoreAggregatorWithWeights(depth, accuracy, completeness, logic, readability float64) *ScoreAggregator {
	sum := depth + accuracy + completeness + logic + readability
	if sum <= 0 {
		return NewScoreAggregator()
	}

	return &ScoreAggregator{
		customWeights: &dimensionWeights{
			Depth:        depth / sum,
			Accuracy:     accuracy / sum,
			Completeness: completeness / sum,
			Logic:        logic / sum,
			Readability:  readability / sum,
		},
	}
}

// weightsFor returns the weight set for a content type, with the uniform
// unknown weights as fallback.
func (a *ScoreAggregator) weightsFor(contentType models.ContentType) dimensionWeights {
	if a.customWeights != nil {
		return *a.customWeights
	}
	if w, ok := weightConfigs[contentType]; ok {
		return w
	}
	return weightConfigs[models.ContentTypeUnknown]
}

// Aggregate computes the weighted overall score and the dimension breakdown.
// The weighted sum is truncated, not rounded, so a 89.9 stays a B.
func (a *ScoreAggregator) Aggregate(
	depth models.DepthResult,
	quality models.QualityResult,
	readability models.ReadabilityResult,
	contentType models.ContentType,
) (int, models.DimensionScores) {
	w := a.weightsFor(contentType)

	dimensions := models.DimensionScores{
		Depth:        depth.Score,
		Accuracy:     quality.AccuracyScore,
		Completeness: quality.CompletenessScore,
		Logic:        quality.LogicScore,
		Readability:  readability.Score,
	}

	overall := w.Depth*float64(depth.Score) +
		w.Accuracy*float64(quality.AccuracyScore) +
		w.Completeness*float64(quality.CompletenessScore) +
		w.Logic*float64(quality.LogicScore) +
		w.Readability*float64(readability.Score)

	return int(overall), dimensions
}

// GradeFor maps a score to a letter grade
func GradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// Summary renders a short human-readable verdict: the grade, the issue
// count, and either the weakest dimension when it drags or the strongest
// when it shines.
func (a *ScoreAggregator) Summary(overallScore int, dimensions models.DimensionScores, issueCount int) string {
	grade := GradeFor(overallScore)

	names := []string{"depth", "accuracy", "completeness", "logic", "readability"}
	values := []int{dimensions.Depth, dimensions.Accuracy, dimensions.Completeness, dimensions.Logic, dimensions.Readability}

	weakIdx, strongIdx := 0, 0
	for i, v := range values {
		if v < values[weakIdx] {
			weakIdx = i
		}
		if v > values[strongIdx] {
			strongIdx = i
		}
	}

	summary := fmt.Sprintf("Overall score %d (grade %s).", overallScore, grade)
	if issueCount > 0 {
		summary += fmt.Sprintf(" Found %d issues.", issueCount)
	}

	if values[weakIdx] < 70 {
		summary += fmt.Sprintf(" Focus improvement on %s.", names[weakIdx])
	} else if values[strongIdx] >= 85 {
		summary += fmt.Sprintf(" Strong %s.", names[strongIdx])
	}

	return summary
}
