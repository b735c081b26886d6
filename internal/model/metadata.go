package model

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	ort "github.com/yalue/onnxruntime_go"
)

// LoadMetadata reads the JSON sidecar at path. Missing fields are filled from defaults.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return metadata.withDefaults(), nil
}

// InspectMetadata derives metadata from the artifact's own input and output declarations.
func InspectMetadata(artifact string) (Metadata, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(artifact)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to inspect model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return Metadata{}, fmt.Errorf("expected one input and one output, got %d and %d", len(inputs), len(outputs))
	}
	return Metadata{
		InputName:  inputs[0].Name,
		OutputName: outputs[0].Name,
	}.withDefaults(), nil
}

func (m Metadata) withDefaults() Metadata {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if len(m.InputShape) == 0 {
		m.InputShape = slices.Clone(InputShape)
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, int64(BloodCells.Len())}
	}
	if m.ImageSize == 0 {
		m.ImageSize = ImageSize
	}
	return m
}

// Check verifies that the artifact agrees with the fixed input shape and the class taxonomy.
func (m Metadata) Check(taxonomy Taxonomy) error {
	if !slices.Equal(m.InputShape, InputShape) {
		return fmt.Errorf("model input shape %v, want %v", m.InputShape, InputShape)
	}
	if m.ImageSize != ImageSize {
		return fmt.Errorf("model image size %d, want %d", m.ImageSize, ImageSize)
	}
	if elements(m.OutputShape) != int64(taxonomy.Len()) {
		return fmt.Errorf("model output shape %v does not hold %d classes", m.OutputShape, taxonomy.Len())
	}
	if len(m.Classes) > 0 {
		return taxonomy.Check(m.Classes)
	}
	return nil
}
