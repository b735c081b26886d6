package config

import (
	"fmt"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

const DefaultModelPath = "leukemia_cnn_model.onnx"

type Config struct {
	Port            int           `env:"PORT,default=8080" validate:"min=1,max=65535"`
	ModelPath       string        `env:"MODEL_PATH,default=leukemia_cnn_model.onnx" validate:"required"`
	MetadataPath    string        `env:"MODEL_METADATA_PATH"`
	ORTLibraryPath  string        `env:"ONNXRUNTIME_LIB"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES,default=10485760" validate:"gt=0"`
	LogLevel        string        `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	LogFile         string        `env:"LOG_FILE"`
	EagerLoad       bool          `env:"EAGER_LOAD,default=false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

// Load reads the configuration from the process environment and validates it.
func Load() (Config, error) {
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return Parse(es)
}

// Parse builds a validated Config from es, applying defaults for absent keys.
func Parse(es env.EnvSet) (Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
