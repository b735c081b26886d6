package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Brownie44l1/bloodcell-api/internal/model"
	"github.com/Brownie44l1/bloodcell-api/internal/pipeline"
)

// ModelStatus reports whether the classifier has been loaded.
type ModelStatus interface {
	Loaded() bool
}

type Handler struct {
	pipeline       *pipeline.Pipeline
	status         ModelStatus
	maxUploadBytes int64
	validate       *validator.Validate
	log            *zap.Logger
}

func NewHandler(p *pipeline.Pipeline, status ModelStatus, maxUploadBytes int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		pipeline:       p,
		status:         status,
		maxUploadBytes: maxUploadBytes,
		validate:       validator.New(),
		log:            log,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/predict", h.Predict)
	mux.HandleFunc("/classify", h.Classify)
	mux.HandleFunc("/predict/image", h.Classify)
	return Chain(mux, RequestID, Logging(h.log), Recovery(h.log), CORS)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": h.status != nil && h.status.Loaded(),
	})
}

// Predict classifies a raw, already normalized tensor of 1x224x224x3 values.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Missing image values", http.StatusBadRequest)
		return
	}

	tensor := model.Tensor{Shape: model.InputShape, Data: req.Image}
	if err := tensor.Validate(model.InputShape); err != nil {
		http.Error(w, fmt.Sprintf("Expected %d values, got %d", model.InputElements, len(req.Image)),
			http.StatusBadRequest)
		return
	}

	result, err := h.pipeline.ClassifyTensor(tensor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Response())
}

// Classify classifies an uploaded JPEG or PNG sent as the multipart field "image".
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}
	h.log.Debug("received upload",
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))

	result, err := h.pipeline.ClassifyBytes(data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Response())
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := RequestIDFrom(r.Context())
	switch {
	case errors.Is(err, model.ErrDecode):
		http.Error(w, "Invalid image format. Supported: JPEG, PNG", http.StatusBadRequest)
	case errors.Is(err, model.ErrModelLoad):
		h.log.Error("model unavailable", zap.String("request_id", reqID), zap.Error(err))
		http.Error(w, "Model unavailable", http.StatusServiceUnavailable)
	default:
		h.log.Error("classification failed", zap.String("request_id", reqID), zap.Error(err))
		http.Error(w, "Classification failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
