package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// SessionConfig locates the ONNX artifact and, optionally, its sidecar and the runtime library.
type SessionConfig struct {
	MetadataPath string
	LibraryPath  string
	Taxonomy     Taxonomy
}

var (
	errNoArtifact = errors.New("model artifact not found")

	envMu sync.Mutex
)

func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// Session is an ONNX Runtime session bound to preallocated input and output tensors.
// Runs share those tensors, so Predict is serialized.
type Session struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	taxonomy     Taxonomy
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewLoader returns a Loader that opens artifacts as ONNX sessions.
func NewLoader(cfg SessionConfig) Loader {
	return func(artifact string) (Predictor, error) {
		s, err := OpenSession(artifact, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func OpenSession(artifact string, cfg SessionConfig) (*Session, error) {
	taxonomy := cfg.Taxonomy
	if taxonomy == nil {
		taxonomy = BloodCells
	}

	info, err := os.Stat(artifact)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w: %s", ErrModelLoad, errNoArtifact, artifact)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is not a model file", ErrModelLoad, artifact)
	}

	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}

	var metadata Metadata
	if cfg.MetadataPath != "" {
		metadata, err = LoadMetadata(cfg.MetadataPath)
	} else {
		metadata, err = InspectMetadata(artifact)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	if err := metadata.Check(taxonomy); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create input tensor: %w", ErrModelLoad, err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("%w: failed to create output tensor: %w", ErrModelLoad, err)
	}

	session, err := ort.NewAdvancedSession(artifact,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("%w: failed to create ONNX session: %w", ErrModelLoad, err)
	}

	return &Session{
		session:      session,
		Metadata:     metadata,
		taxonomy:     taxonomy,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (s *Session) Predict(input Tensor) (ProbabilityVector, error) {
	if err := input.Validate(s.Metadata.InputShape); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), input.Data)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := s.outputTensor.GetData()
	if len(out) != s.taxonomy.Len() {
		return nil, fmt.Errorf("%w: model produced %d scores for %d classes", ErrShapeMismatch, len(out), s.taxonomy.Len())
	}
	return ProbabilityVector(slices.Clone(out)), nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
