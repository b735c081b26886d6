package model

import (
	"fmt"
	"slices"
)

const (
	ImageSize     = 224
	Channels      = 3
	InputElements = ImageSize * ImageSize * Channels
)

// InputShape is the only tensor shape the classifier accepts: a single NHWC image.
var InputShape = []int64{1, ImageSize, ImageSize, Channels}

// Metadata describes the exported model artifact. It is read from an optional JSON sidecar.
type Metadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// Tensor is a dense float32 array in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor(shape ...int64) Tensor {
	return Tensor{
		Shape: slices.Clone(shape),
		Data:  make([]float32, elements(shape)),
	}
}

// Validate reports ErrShapeMismatch unless t has exactly the expected shape and a matching backing array.
func (t Tensor) Validate(expected []int64) error {
	if !slices.Equal(t.Shape, expected) {
		return fmt.Errorf("%w: got shape %v, want %v", ErrShapeMismatch, t.Shape, expected)
	}
	if want := elements(expected); int64(len(t.Data)) != want {
		return fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShapeMismatch, expected, want, len(t.Data))
	}
	return nil
}

func elements(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range shape {
		n *= dim
	}
	return n
}

// ProbabilityVector holds one softmax score per taxonomy class, in taxonomy order.
type ProbabilityVector []float32

//go:generate mockgen -source=types.go -destination=mocks/mock_predictor.go -package=mocks

// Predictor runs the trained classifier on a single normalized image tensor.
type Predictor interface {
	Predict(input Tensor) (ProbabilityVector, error)
}

type PredictionRequest struct {
	Image []float32 `json:"image" validate:"required"`
}

type ClassProbability struct {
	Class       string  `json:"class"`
	Probability float32 `json:"probability"`
	Percent     string  `json:"percent"`
}

type PredictionResponse struct {
	Class             string             `json:"class"`
	Confidence        float32            `json:"confidence"`
	ConfidencePercent string             `json:"confidence_percent"`
	Predictions       map[string]float32 `json:"predictions"`
	Ranking           []ClassProbability `json:"ranking"`
}

// FormatPercent renders p (in [0,1]) as a percentage with the given number of decimals.
func FormatPercent(p float32, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, float64(p)*100)
}
