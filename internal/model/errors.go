package model

import "errors"

var (
	// ErrDecode means the input could not be interpreted as a JPEG or PNG image.
	ErrDecode = errors.New("image decode failed")
	// ErrModelLoad means the model artifact is missing or corrupt.
	ErrModelLoad = errors.New("model load failed")
	// ErrShapeMismatch is a contract violation between the normalizer, the model and the taxonomy.
	ErrShapeMismatch = errors.New("tensor shape mismatch")
)
