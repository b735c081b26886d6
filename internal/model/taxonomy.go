package model

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Taxonomy is the ordered list of class labels. Index i names element i of a ProbabilityVector.
type Taxonomy []string

// BloodCells is the order the classifier was trained with. Do not reorder.
var BloodCells = Taxonomy{
	"Basophil",
	"Erythroblast",
	"Monocyte",
	"Myeloblast",
	"Segmented Neutrophil",
}

func (t Taxonomy) Len() int { return len(t) }

// Check verifies that classes (as declared by a model artifact) match t exactly, in order.
func (t Taxonomy) Check(classes []string) error {
	if slices.Equal([]string(t), classes) {
		return nil
	}
	return fmt.Errorf("model classes %v do not match taxonomy %v", classes, []string(t))
}

// ClassificationResult is the outcome of one classification. It is never mutated after construction.
type ClassificationResult struct {
	label         string
	confidence    float32
	taxonomy      Taxonomy
	probabilities ProbabilityVector
}

// NewClassificationResult selects the most probable class of probs (lowest index wins ties).
func NewClassificationResult(taxonomy Taxonomy, probs ProbabilityVector) (ClassificationResult, error) {
	if len(probs) != taxonomy.Len() || len(probs) == 0 {
		return ClassificationResult{}, fmt.Errorf("%w: got %d probabilities for %d classes",
			ErrShapeMismatch, len(probs), taxonomy.Len())
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return ClassificationResult{
		label:         taxonomy[best],
		confidence:    probs[best],
		taxonomy:      slices.Clone(taxonomy),
		probabilities: slices.Clone(probs),
	}, nil
}

func (r ClassificationResult) Label() string { return r.label }

func (r ClassificationResult) Confidence() float32 { return r.confidence }

// Probabilities returns a fresh label -> probability map.
func (r ClassificationResult) Probabilities() map[string]float32 {
	return lo.SliceToMap(lo.Range(len(r.taxonomy)), func(i int) (string, float32) {
		return r.taxonomy[i], r.probabilities[i]
	})
}

func (r ClassificationResult) Probability(label string) (float32, bool) {
	i := slices.Index(r.taxonomy, label)
	if i < 0 {
		return 0, false
	}
	return r.probabilities[i], true
}

// Ranking lists every class in taxonomy order.
func (r ClassificationResult) Ranking() []ClassProbability {
	return lo.Map(r.taxonomy, func(label string, i int) ClassProbability {
		return ClassProbability{
			Class:       label,
			Probability: r.probabilities[i],
			Percent:     FormatPercent(r.probabilities[i], 1),
		}
	})
}

// Sum is the total probability mass of the vector.
func (r ClassificationResult) Sum() float32 {
	return lo.Sum(r.probabilities)
}

func (r ClassificationResult) Response() PredictionResponse {
	return PredictionResponse{
		Class:             r.label,
		Confidence:        r.confidence,
		ConfidencePercent: FormatPercent(r.confidence, 2),
		Predictions:       r.Probabilities(),
		Ranking:           r.Ranking(),
	}
}
