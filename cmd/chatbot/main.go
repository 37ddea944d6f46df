// Chatbot is an Indonesian-language customer support chatbot for a
// simple online store.
//
// It exposes an HTTP API for conversational turns backed by SQLite
// persistence, a sliding-window conversation memory, keyword-dispatched
// lookup tools (order status, product info, warranty policy), and an
// Ollama-backed generative path for everything else. Configuration is
// loaded from a single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	chatbot serve              Start the API server
//	chatbot ask <message>      Run a single turn through the pipeline
//	chatbot seed <file.yaml>   Load reference fixtures (orders, products, policies)
//	chatbot init [dir]         Initialize a working directory with defaults
//	chatbot version            Print version and build information
//	chatbot -o json version    Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/adrianfhr/customer-support-chatbot/internal/api"
	"github.com/adrianfhr/customer-support-chatbot/internal/buildinfo"
	"github.com/adrianfhr/customer-support-chatbot/internal/chat"
	"github.com/adrianfhr/customer-support-chatbot/internal/config"
	"github.com/adrianfhr/customer-support-chatbot/internal/httpkit"
	"github.com/adrianfhr/customer-support-chatbot/internal/llm"
	"github.com/adrianfhr/customer-support-chatbot/internal/memory"
	"github.com/adrianfhr/customer-support-chatbot/internal/store"
	"github.com/adrianfhr/customer-support-chatbot/internal/tools"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the chatbot command. OS-level
// dependencies are injected as parameters so tests can drive the whole
// lifecycle. Arguments are parsed by hand: the flag package relies on
// package-level globals, which makes concurrent test runs awkward, and
// the argument surface here is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stderr, configPath)
	case "ask":
		if len(cmdArgs) == 0 {
			return errors.New("usage: chatbot ask <message>")
		}
		return runAsk(ctx, stdout, stderr, configPath, strings.Join(cmdArgs, " "))
	case "seed":
		if len(cmdArgs) != 1 {
			return errors.New("usage: chatbot seed <file.yaml>")
		}
		return runSeed(ctx, stdout, stderr, configPath, cmdArgs[0])
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return printVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintf(w, `chatbot - customer support chatbot for a simple online store

Usage:
  chatbot serve              Start the API server
  chatbot ask <message>      Run a single turn through the pipeline
  chatbot seed <file.yaml>   Load reference fixtures (orders, products, policies)
  chatbot init [dir]         Initialize a working directory with defaults
  chatbot version            Print version and build information

Flags:
  -config <path>   Config file (default: search %v)
  -o <format>      Output format for version: text or json
`, config.DefaultSearchPaths())
	return nil
}

func printVersion(w io.Writer, format string) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(buildinfo.Info())
	}
	fmt.Fprintln(w, buildinfo.String())
	return nil
}

// loadConfig resolves and loads configuration, falling back to built-in
// defaults when no config file exists and none was requested explicitly.
func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	path, err := config.FindConfig(configPath)
	if err != nil {
		if configPath != "" {
			return nil, err
		}
		logger.Warn("no config file found, using defaults")
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	logger.Info("loaded config", "path", path)
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

// pipeline holds the wired turn-processing components.
type pipeline struct {
	store  *store.Store
	window *memory.Window
	svc    *chat.Service
	client *llm.OllamaClient
}

// buildPipeline opens the store and wires the chat service.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// Big models can be slow to first token; give generation headroom.
	client := llm.NewOllamaClient(
		cfg.Ollama.URL,
		cfg.Ollama.Model,
		cfg.Ollama.Temperature,
		httpkit.WithTimeout(5*time.Minute),
	)

	window := memory.NewWindow(st, cfg.Memory.MaxExchanges, logger)
	svc := chat.NewService(st, window, tools.NewDispatcher(st, logger), client, logger)

	return &pipeline{store: st, window: window, svc: svc, client: client}, nil
}

func runServe(ctx context.Context, stderr io.Writer, configPath string) error {
	bootLogger := slog.New(slog.NewTextHandler(stderr, nil))

	cfg, err := loadConfig(configPath, bootLogger)
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, cfg)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.store.Close()

	if err := p.client.Ping(ctx); err != nil {
		logger.Warn("ollama unreachable, generative replies degrade to fallback",
			"url", cfg.Ollama.URL, "error", err)
	}

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, p.svc, p.store, p.window, p.client, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func runAsk(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath, message string) error {
	bootLogger := slog.New(slog.NewTextHandler(stderr, nil))

	cfg, err := loadConfig(configPath, bootLogger)
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, cfg)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.store.Close()

	res, err := p.svc.ProcessMessage(ctx, "cli-"+uuid.New().String(), message)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout, res.Reply)
	if len(res.ToolCalls) > 0 {
		fmt.Fprintf(stdout, "\n(tools: %s)\n", strings.Join(res.ToolCalls, ", "))
	}
	return nil
}

func runSeed(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath, seedPath string) error {
	bootLogger := slog.New(slog.NewTextHandler(stderr, nil))

	cfg, err := loadConfig(configPath, bootLogger)
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, cfg)
	if err != nil {
		return err
	}

	sf, err := store.LoadSeedFile(seedPath)
	if err != nil {
		return fmt.Errorf("load seed file: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.Seed(ctx, sf); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	logger.Info("seed complete",
		"orders", len(sf.Orders),
		"products", len(sf.Products),
		"policies", len(sf.Policies),
	)
	fmt.Fprintf(stdout, "seeded %d orders, %d products, %d policies into %s\n",
		len(sf.Orders), len(sf.Products), len(sf.Policies), cfg.Database.Path)
	return nil
}

// defaultConfigYAML is written by the init subcommand.
const defaultConfigYAML = `# Customer support chatbot configuration
listen:
  address: ""
  port: 8080

database:
  path: chatbot.db

ollama:
  # Values support ${VAR} environment expansion, e.g. url: ${OLLAMA_URL}
  url: http://localhost:11434
  model: llama3.2:3b
  temperature: 0.4

memory:
  max_exchanges: 3

log_level: info
log_format: text
`

// defaultSeedYAML is the demo fixture written by the init subcommand.
const defaultSeedYAML = `orders:
  - id: ORD123
    user_id: user-1
    status: shipped
    last_update_at: 2025-09-16T14:30:00Z
    eta_date: 2025-09-18T00:00:00Z
    carrier: JNE
    tracking_number: JNE789
  - id: ORD456
    user_id: user-2
    status: pending

products:
  - id: prod-1
    name: Laptop Gaming X Pro
    features: Processor Intel i7-12700H, RAM 16GB DDR4, GPU RTX 4060 8GB, Storage 1TB NVMe SSD, Display 15.6" 144Hz
    price: 18500000
    stock: 5
  - id: prod-2
    name: Smartphone Z
    features: Layar AMOLED 6.5", Kamera 108MP, Baterai 5000mAh
    price: 4999000
    stock: 0

policies:
  - type: warranty
    content_markdown: |
      # Prosedur Klaim Garansi

      1. Siapkan nota pembelian asli dan kartu garansi
      2. Hubungi customer service di 0800-1234-5678 (gratis) atau email cs@toko.com
      3. Jelaskan masalah produk dengan detail
      4. Tim CS akan memberikan instruksi selanjutnya (perbaikan atau penggantian)
      5. Garansi berlaku 1 tahun dari tanggal pembelian untuk kerusakan manufaktur

      Catatan: Garansi tidak berlaku untuk kerusakan akibat kesalahan penggunaan.
`

// runInit writes starter config and fixture files into dir, refusing to
// overwrite anything that already exists.
func runInit(stdout io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	files := map[string]string{
		"config.yaml": defaultConfigYAML,
		"seed.yaml":   defaultSeedYAML,
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(stdout, "skipping %s (already exists)\n", path)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}

	fmt.Fprintln(stdout, "\nNext steps:")
	fmt.Fprintln(stdout, "  chatbot seed seed.yaml")
	fmt.Fprintln(stdout, "  chatbot serve")
	return nil
}
