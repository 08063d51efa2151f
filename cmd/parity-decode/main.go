package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	paritydecoder "github.com/menta2k/parity-decoder"
	"github.com/menta2k/parity-decoder/internal/config"
	"github.com/menta2k/parity-decoder/internal/utils"
	"github.com/menta2k/parity-decoder/pkg/model"
)

func main() {
	var in, out, configPath, title string
	var heifSupported, allowFallback bool
	var maxPixels int

	var modelName, modelCache, modelURL string

	flag.StringVar(&in, "in", "", "input image file or directory")
	flag.StringVar(&out, "out", "out", "output directory for decoded PNGs and index.html")
	flag.StringVar(&configPath, "config", "", "path to a JSON config file (optional)")
	flag.StringVar(&title, "title", "", "gallery title (overrides config)")

	flag.BoolVar(&heifSupported, "heif", false, "mark HEIF pixel decoding as available")
	flag.BoolVar(&allowFallback, "fallback", true, "allow the raw WebP decode fallback")
	flag.IntVar(&maxPixels, "maxpixels", 0, "reject images above this pixel count, 0 = config default")

	flag.StringVar(&modelName, "ensure-model", "", "model artifact to fetch and verify before decoding (optional)")
	flag.StringVar(&modelCache, "model-cache", "", "model cache directory (overrides config)")
	flag.StringVar(&modelURL, "model-url", "", "model base URL (overrides config)")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in image-or-dir [-out outdir] [-heif] [-title name] [-ensure-model file.onnx]", filepath.Base(os.Args[0]))
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	cfg.Decode.HeifSupported = cfg.Decode.HeifSupported || heifSupported
	cfg.Decode.AllowFallback = allowFallback
	if maxPixels > 0 {
		cfg.Decode.MaxPixels = maxPixels
	}
	if title != "" {
		cfg.Report.Title = title
	}
	if modelCache != "" {
		cfg.Model.CacheDir = modelCache
	}
	if modelURL != "" {
		cfg.Model.BaseURL = modelURL
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if modelName != "" {
		artifact, err := model.Ensure(context.Background(), modelName, cfg.Model.CacheDir, cfg.Model.BaseURL)
		if err != nil {
			log.Fatalf("failed to ensure model %s: %v", modelName, err)
		}
		fmt.Printf("Model: %s (sha256 %s)\n", artifact.Path, artifact.SHA256)
	}

	// A single file is processed through its parent directory filtered
	// down to just that file via a temporary staging dir; directories
	// are processed as-is.
	inputDir := in
	if utils.FileExists(in) {
		staging, err := os.MkdirTemp("", "parity-decode-*")
		if err != nil {
			log.Fatalf("failed to create staging directory: %v", err)
		}
		defer os.RemoveAll(staging)
		data, err := os.ReadFile(in)
		if err != nil {
			log.Fatalf("failed to read %s: %v", in, err)
		}
		if err := os.WriteFile(filepath.Join(staging, filepath.Base(in)), data, 0o644); err != nil {
			log.Fatalf("failed to stage %s: %v", in, err)
		}
		inputDir = staging
	} else if !utils.DirExists(in) {
		log.Fatalf("input %s does not exist", in)
	}

	pd := paritydecoder.NewWithConfig(cfg)
	records, err := pd.ProcessDirectory(inputDir, out)
	if err != nil {
		log.Fatalf("decode failed: %v", err)
	}

	fmt.Printf("Decoded %d image(s).\n", len(records))
	fmt.Printf("Gallery: %s\n", filepath.Join(out, "index.html"))
}
