// Command classify runs a single blood-cell image through the classifier and prints the result.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/Brownie44l1/bloodcell-api/internal/config"
	"github.com/Brownie44l1/bloodcell-api/internal/logging"
	"github.com/Brownie44l1/bloodcell-api/internal/model"
	"github.com/Brownie44l1/bloodcell-api/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	var (
		imagePath    = flag.String("image", "", "path to a JPEG or PNG blood-cell image")
		modelPath    = flag.String("model", envOr("MODEL_PATH", config.DefaultModelPath), "ONNX model path")
		metadataPath = flag.String("metadata", os.Getenv("MODEL_METADATA_PATH"), "optional model metadata JSON")
		libraryPath  = flag.String("ort-lib", os.Getenv("ONNXRUNTIME_LIB"), "optional onnxruntime shared library")
		logLevel     = flag.String("log-level", "warn", "log level: debug|info|warn|error")
	)
	flag.Parse()

	if *imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*imagePath, *logLevel, model.SessionConfig{
		MetadataPath: *metadataPath,
		LibraryPath:  *libraryPath,
	}, *modelPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(imagePath, logLevel string, sessionCfg model.SessionConfig, modelPath string) error {
	log, err := logging.New(logLevel, "")
	if err != nil {
		return err
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	handle := model.NewHandle(modelPath, model.NewLoader(sessionCfg), log)
	defer handle.Close()

	result, err := pipeline.New(handle, pipeline.WithLogger(log)).ClassifyBytes(data)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}
	render(os.Stdout, result)
	return nil
}

func render(w io.Writer, result model.ClassificationResult) {
	fmt.Fprintf(w, "%s\n", color.Bold.Sprint(color.Red.Sprint(result.Label())))
	fmt.Fprintf(w, "Confidence: %s\n\n", color.Cyan.Sprint(model.FormatPercent(result.Confidence(), 2)))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Class", "Probability"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, entry := range result.Ranking() {
		table.Append([]string{entry.Class, entry.Percent})
	}
	table.Render()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
