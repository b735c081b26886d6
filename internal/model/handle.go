package model

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Loader deserializes the model artifact. It is called at most once per successful load.
type Loader func(artifact string) (Predictor, error)

// Handle owns the lazily loaded classifier for one artifact path.
// The first Get loads the artifact under a mutex; later calls read the cached predictor without locking.
// A failed load is not remembered, so a later call tries again.
type Handle struct {
	artifact string
	load     Loader
	log      *zap.Logger

	mu     sync.Mutex
	closed bool
	loaded atomic.Pointer[Predictor]
}

func NewHandle(artifact string, load Loader, log *zap.Logger) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handle{
		artifact: artifact,
		load:     load,
		log:      log.With(zap.String("artifact", artifact)),
	}
}

func (h *Handle) Artifact() string { return h.artifact }

// Loaded reports whether the artifact has been loaded.
func (h *Handle) Loaded() bool {
	return h.loaded.Load() != nil
}

// Get returns the loaded predictor, loading it on first use.
func (h *Handle) Get() (Predictor, error) {
	if p := h.loaded.Load(); p != nil {
		return *p, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if p := h.loaded.Load(); p != nil {
		return *p, nil
	}
	if h.closed {
		return nil, fmt.Errorf("%w: %s: handle closed", ErrModelLoad, h.artifact)
	}

	start := time.Now()
	predictor, err := h.load(h.artifact)
	if err != nil {
		h.log.Error("model load failed", zap.Error(err))
		if errors.Is(err, ErrModelLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, h.artifact, err)
	}
	if predictor == nil {
		return nil, fmt.Errorf("%w: %s: loader returned no model", ErrModelLoad, h.artifact)
	}
	h.loaded.Store(&predictor)
	h.log.Info("model loaded", zap.Duration("took", time.Since(start)))
	return predictor, nil
}

// Predict acquires the model and runs it on input.
func (h *Handle) Predict(input Tensor) (ProbabilityVector, error) {
	p, err := h.Get()
	if err != nil {
		return nil, err
	}
	return p.Predict(input)
}

// Close releases the loaded model, if any. Get fails after Close.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	p := h.loaded.Swap(nil)
	if p == nil {
		return nil
	}
	if c, ok := (*p).(io.Closer); ok {
		return c.Close()
	}
	return nil
}
