package config

import (
	"runtime"
	"strings"
	"testing"

	"github.com/ironsheep/digit-sign-mcp/internal/logging"
	"github.com/ironsheep/digit-sign-mcp/internal/pipeline"
)

var configKeys = []string{
	"DIGIT_MCP_LOG_LEVEL",
	"DIGIT_MCP_LANGUAGE",
	"DIGIT_MCP_TESSDATA_PREFIX",
	"DIGIT_MCP_MODEL",
	"DIGIT_MCP_MODE",
	"DIGIT_MCP_MIN_DIGIT_WIDTH",
	"DIGIT_MCP_WORKERS",
	"DIGIT_MCP_AUGMENT",
	"DIGIT_MCP_SIGN_MIN_PIXELS",
	"DIGIT_MCP_SIGN_MIN_ASPECT",
	"DIGIT_MCP_SIGN_MIN_FILL",
	"DIGIT_MCP_MARGIN_DIVISOR",
}

// clearEnv blanks every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := Config{
		LogLevel:      "info",
		Language:      "eng",
		Model:         "kaggle",
		Mode:          "sign",
		MinDigitWidth: 10,
		Workers:       runtime.NumCPU(),
		SignMinPixels: 2500,
		SignMinAspect: 1.25,
		SignMinFill:   0.5,
		MarginDivisor: 7,
	}
	if *cfg != want {
		t.Errorf("got %+v, want %+v", *cfg, want)
	}
	if cfg.Level() != logging.LevelInfo {
		t.Errorf("level: got %v, want info", cfg.Level())
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIGIT_MCP_LOG_LEVEL", "debug")
	t.Setenv("DIGIT_MCP_MODEL", "caffe")
	t.Setenv("DIGIT_MCP_MODE", "direct")
	t.Setenv("DIGIT_MCP_WORKERS", "3")
	t.Setenv("DIGIT_MCP_AUGMENT", "true")
	t.Setenv("DIGIT_MCP_SIGN_MIN_ASPECT", " 1.5 ")
	t.Setenv("DIGIT_MCP_MARGIN_DIVISOR", "5")
	t.Setenv("DIGIT_MCP_TESSDATA_PREFIX", "/opt/tessdata")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Level() != logging.LevelDebug {
		t.Errorf("level: got %v, want debug", cfg.Level())
	}

	opts, err := cfg.PipelineOptions()
	if err != nil {
		t.Fatalf("PipelineOptions failed: %v", err)
	}
	if opts.Model != pipeline.ModelCaffe || opts.Mode != pipeline.ModeDirect {
		t.Errorf("model/mode: got %v/%v", opts.Model.Name, opts.Mode)
	}
	if opts.Workers != 3 || opts.Sign.MinAspect != 1.5 || opts.Zone.MarginDivisor != 5 {
		t.Errorf("numeric overrides not applied: %+v", opts)
	}
	if len(opts.Rotations) != len(AugmentAngles) {
		t.Errorf("rotations: got %v, want %v", opts.Rotations, AugmentAngles)
	}

	ocrOpts := cfg.OCROptions()
	if ocrOpts.TessdataPrefix != "/opt/tessdata" || ocrOpts.Language != "eng" {
		t.Errorf("ocr options: got %+v", ocrOpts)
	}
}

func TestLoadConfig_UnparsableFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIGIT_MCP_WORKERS", "many")
	t.Setenv("DIGIT_MCP_SIGN_MIN_FILL", "half")
	t.Setenv("DIGIT_MCP_AUGMENT", "sometimes")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Workers != runtime.NumCPU() || cfg.SignMinFill != 0.5 || cfg.Augment {
		t.Errorf("fallbacks not applied: %+v", *cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantMsg string
	}{
		{"DIGIT_MCP_LOG_LEVEL", "verbose", "DIGIT_MCP_LOG_LEVEL"},
		{"DIGIT_MCP_MODEL", "lenet", "DIGIT_MCP_MODEL"},
		{"DIGIT_MCP_MODE", "zone", "DIGIT_MCP_MODE"},
		{"DIGIT_MCP_MIN_DIGIT_WIDTH", "-1", "DIGIT_MCP_MIN_DIGIT_WIDTH"},
		{"DIGIT_MCP_WORKERS", "0", "DIGIT_MCP_WORKERS"},
		{"DIGIT_MCP_SIGN_MIN_PIXELS", "0", "DIGIT_MCP_SIGN_MIN_PIXELS"},
		{"DIGIT_MCP_SIGN_MIN_ASPECT", "-2", "DIGIT_MCP_SIGN_MIN_ASPECT"},
		{"DIGIT_MCP_SIGN_MIN_FILL", "1.5", "DIGIT_MCP_SIGN_MIN_FILL"},
		{"DIGIT_MCP_MARGIN_DIVISOR", "0", "DIGIT_MCP_MARGIN_DIVISOR"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			if err == nil {
				t.Fatalf("%s=%s accepted", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not name %s", err, tt.wantMsg)
			}
		})
	}
}
