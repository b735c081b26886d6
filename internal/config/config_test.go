package config

import (
	"testing"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	req := require.New(t)
	cfg, err := Parse(env.EnvSet{})
	req.NoError(err)
	req.Equal(8080, cfg.Port)
	req.Equal(DefaultModelPath, cfg.ModelPath)
	req.Equal(int64(10<<20), cfg.MaxUploadBytes)
	req.Equal("info", cfg.LogLevel)
	req.False(cfg.EagerLoad)
	req.Equal(10*time.Second, cfg.ShutdownTimeout)
	req.Empty(cfg.MetadataPath)
	req.Equal(":8080", cfg.Addr())
}

func TestParse_Overrides(t *testing.T) {
	req := require.New(t)
	cfg, err := Parse(env.EnvSet{
		"PORT":                "9000",
		"MODEL_PATH":          "/models/cells.onnx",
		"MODEL_METADATA_PATH": "/models/cells.json",
		"ONNXRUNTIME_LIB":     "/usr/lib/libonnxruntime.so",
		"MAX_UPLOAD_BYTES":    "2048",
		"LOG_LEVEL":           "debug",
		"LOG_FILE":            "/var/log/cells.log",
		"EAGER_LOAD":          "true",
		"SHUTDOWN_TIMEOUT":    "3s",
	})
	req.NoError(err)
	req.Equal(9000, cfg.Port)
	req.Equal("/models/cells.onnx", cfg.ModelPath)
	req.Equal("/models/cells.json", cfg.MetadataPath)
	req.Equal("/usr/lib/libonnxruntime.so", cfg.ORTLibraryPath)
	req.Equal(int64(2048), cfg.MaxUploadBytes)
	req.Equal("debug", cfg.LogLevel)
	req.Equal("/var/log/cells.log", cfg.LogFile)
	req.True(cfg.EagerLoad)
	req.Equal(3*time.Second, cfg.ShutdownTimeout)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		description string
		es          env.EnvSet
	}{
		{"Should fail on an unknown log level", env.EnvSet{"LOG_LEVEL": "verbose"}},
		{"Should fail on a port out of range", env.EnvSet{"PORT": "70000"}},
		{"Should fail on a non-numeric port", env.EnvSet{"PORT": "http"}},
		{"Should fail on a zero upload limit", env.EnvSet{"MAX_UPLOAD_BYTES": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := Parse(tt.es)
			require.Error(t, err)
		})
	}
}
