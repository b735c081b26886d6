// Package pipeline classifies blood-cell images: normalize, predict, interpret.
package pipeline

import (
	"image"
	"math"

	"go.uber.org/zap"

	"github.com/Brownie44l1/bloodcell-api/internal/model"
	"github.com/Brownie44l1/bloodcell-api/internal/preprocess"
)

const sumTolerance = 1e-3

// Normalizer turns a decoded image into the model input tensor.
type Normalizer interface {
	Normalize(img image.Image) (model.Tensor, error)
}

// ResultBuilder interprets a probability vector against a fixed taxonomy.
type ResultBuilder struct {
	Taxonomy model.Taxonomy
}

func (b ResultBuilder) Build(probs model.ProbabilityVector) (model.ClassificationResult, error) {
	return model.NewClassificationResult(b.Taxonomy, probs)
}

// Pipeline is safe for concurrent use as long as its Predictor is.
type Pipeline struct {
	normalizer Normalizer
	predictor  model.Predictor
	builder    ResultBuilder
	log        *zap.Logger
}

type Option func(*Pipeline)

func WithNormalizer(n Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

func WithTaxonomy(t model.Taxonomy) Option {
	return func(p *Pipeline) { p.builder = ResultBuilder{Taxonomy: t} }
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

func New(predictor model.Predictor, opts ...Option) *Pipeline {
	p := &Pipeline{
		normalizer: preprocess.NewNormalizer(),
		predictor:  predictor,
		builder:    ResultBuilder{Taxonomy: model.BloodCells},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Classify runs one image through the model. Errors from any stage are returned unchanged.
func (p *Pipeline) Classify(img image.Image) (model.ClassificationResult, error) {
	tensor, err := p.normalizer.Normalize(img)
	if err != nil {
		return model.ClassificationResult{}, err
	}
	return p.ClassifyTensor(tensor)
}

// ClassifyBytes decodes an uploaded JPEG or PNG and classifies it.
func (p *Pipeline) ClassifyBytes(data []byte) (model.ClassificationResult, error) {
	img, format, err := preprocess.Decode(data)
	if err != nil {
		return model.ClassificationResult{}, err
	}
	p.log.Debug("image decoded",
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	return p.Classify(img)
}

// ClassifyTensor classifies an already normalized tensor.
func (p *Pipeline) ClassifyTensor(tensor model.Tensor) (model.ClassificationResult, error) {
	probs, err := p.predictor.Predict(tensor)
	if err != nil {
		return model.ClassificationResult{}, err
	}
	result, err := p.builder.Build(probs)
	if err != nil {
		return model.ClassificationResult{}, err
	}

	if sum := result.Sum(); math.Abs(float64(sum)-1) > sumTolerance {
		p.log.Warn("probabilities do not sum to one", zap.Float32("sum", sum))
	}
	p.log.Debug("image classified",
		zap.String("label", result.Label()),
		zap.Float32("confidence", result.Confidence()))
	return result, nil
}
