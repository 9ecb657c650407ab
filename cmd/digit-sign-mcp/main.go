package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ironsheep/digit-sign-mcp/internal/config"
	"github.com/ironsheep/digit-sign-mcp/internal/logging"
	"github.com/ironsheep/digit-sign-mcp/internal/ocr"
	"github.com/ironsheep/digit-sign-mcp/internal/pipeline"
	"github.com/ironsheep/digit-sign-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("digit-sign-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to read .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("digit-sign-mcp", cfg.Level())
	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	classifier, err := ocr.NewTesseractClassifier(cfg.OCROptions())
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}

	opts, err := cfg.PipelineOptions()
	if err != nil {
		log.Fatalf("Invalid pipeline configuration: %v", err)
	}
	reader, err := pipeline.NewReader(classifier, opts, logging.NewLogger("pipeline", cfg.Level()))
	if err != nil {
		log.Fatalf("Failed to create reader: %v", err)
	}
	logger.Info("configuration loaded",
		"mode", opts.Mode, "model", opts.Model.Name, "workers", opts.Workers, "rotations", len(opts.Rotations))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(reader, logger, Version)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Println("digit-sign-mcp - MCP server that reads digits off photographed signs")
	fmt.Println()
	fmt.Println("Usage: digit-sign-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from ./.env):")
	fmt.Println("  DIGIT_MCP_LOG_LEVEL=info          debug, info, warn or error")
	fmt.Println("  DIGIT_MCP_MODE=sign               sign or direct")
	fmt.Println("  DIGIT_MCP_MODEL=kaggle            Glyph layout: kaggle (32px, [-1,1]) or caffe (28px, [0,1])")
	fmt.Println("  DIGIT_MCP_LANGUAGE=eng            Tesseract language")
	fmt.Println("  DIGIT_MCP_TESSDATA_PREFIX=        Tesseract data directory")
	fmt.Println("  DIGIT_MCP_WORKERS=<cpus>          Concurrent glyph classifications")
	fmt.Println("  DIGIT_MCP_AUGMENT=false           Also classify glyphs rotated by up to 5 degrees")
	fmt.Println("  DIGIT_MCP_MIN_DIGIT_WIDTH=10      Narrowest column interval read as a digit")
	fmt.Println("  DIGIT_MCP_SIGN_MIN_PIXELS=2500    Smallest sign blob")
	fmt.Println("  DIGIT_MCP_SIGN_MIN_ASPECT=1.25    Smallest sign width/height")
	fmt.Println("  DIGIT_MCP_SIGN_MIN_FILL=0.5       Smallest sign fill ratio")
	fmt.Println("  DIGIT_MCP_MARGIN_DIVISOR=7        Digit zone margin divisor")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
