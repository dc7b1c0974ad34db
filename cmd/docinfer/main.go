package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docinfer/constants"
	"docinfer/internal/common"
	"docinfer/internal/extract"
	"docinfer/internal/llm"
	"docinfer/internal/llm/ollama"
	"docinfer/internal/llm/openai"
	"docinfer/internal/output"
	"docinfer/internal/pipeline"
)

type cliOptions struct {
	jsonOutput bool
	exportPath string
	noAI       bool
	quiet      bool
	bestEffort bool
	failEmpty  bool

	backend  string
	host     string
	baseURL  string
	model    string
	password string
	timeout  time.Duration
	maxChars int
	maxPages int
}

func main() {
	// .env is optional; flags and real env vars win
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "docinfer FILE",
		Short:         "Extract metadata from a PDF using a locally hosted LLM",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, opts, args[0])
		},
	}

	fl := root.Flags()
	fl.BoolVar(&opts.jsonOutput, "json", false, "output as JSON instead of formatted text")
	fl.StringVar(&opts.exportPath, "export", "", "export the JSON result to a file")
	fl.BoolVar(&opts.noAI, "no-ai", false, "skip inference, show embedded metadata only")
	fl.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress logging")
	fl.BoolVar(&opts.bestEffort, "best-effort", cfg.Validation.BestEffort, "return partial metadata when some fields fail validation")
	fl.BoolVar(&opts.failEmpty, "fail-empty", !cfg.Extract.AllowEmptyDocument, "treat documents without extractable text as an error")
	fl.StringVar(&opts.backend, "backend", cfg.Backend.Provider, "inference backend: ollama or openai")
	fl.StringVar(&opts.host, "host", cfg.Backend.Host, "ollama host URL")
	fl.StringVar(&opts.baseURL, "base-url", cfg.Backend.BaseURL, "base URL for the openai-compatible backend")
	fl.StringVar(&opts.model, "model", cfg.Backend.Model, "model to use for inference")
	fl.StringVar(&opts.password, "password", cfg.Extract.Password, "PDF decryption password")
	fl.DurationVar(&opts.timeout, "timeout", cfg.Backend.Timeout, "per-request backend timeout")
	fl.IntVar(&opts.maxChars, "max-chars", cfg.Prompt.CharBudget, "character budget for document text in the prompt")
	fl.IntVar(&opts.maxPages, "max-pages", cfg.Extract.MaxPages, "maximum pages to analyze (0 = all)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, output.RenderError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, opts *cliOptions, path string) error {
	level := slog.LevelInfo
	if opts.quiet {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg.Backend.Provider = opts.backend
	if err := cfg.Validate(); err != nil {
		return err
	}

	extractor := extract.NewPDFExtractor(extract.Config{
		MaxPages: opts.maxPages,
		Password: opts.password,
	}, logger)

	var inferrer llm.MetadataInferrer
	switch opts.backend {
	case "openai":
		inferrer = openai.NewClient(openai.Config{
			BaseURL:     opts.baseURL,
			APIKey:      cfg.Backend.APIKey,
			Model:       opts.model,
			Temperature: cfg.Backend.Temperature,
			Timeout:     opts.timeout,
			RetryDelay:  cfg.Backend.RetryDelay,
		}, logger)
	default:
		client := ollama.NewClient(ollama.Config{
			Host:        opts.host,
			Model:       opts.model,
			Temperature: cfg.Backend.Temperature,
			Timeout:     opts.timeout,
			RetryDelay:  cfg.Backend.RetryDelay,
		}, logger)
		if !opts.noAI {
			// Preflight only distinguishes "model not pulled" from everything
			// else; an unreachable backend is the pipeline's call to report.
			if ok, err := client.CheckModel(ctx); err == nil && !ok {
				return common.NewStageError(common.StageInfer, common.KindBackendUnavailable,
					fmt.Sprintf("model %q is not available; run: ollama pull %s", opts.model, opts.model), nil)
			}
		}
		inferrer = client
	}

	processor := pipeline.NewProcessor(logger, pipeline.Config{
		Model:              opts.model,
		Temperature:        cfg.Backend.Temperature,
		Prompt:             llm.PromptConfig{CharBudget: opts.maxChars, HeadChars: cfg.Prompt.HeadChars, TailChars: cfg.Prompt.TailChars},
		SkipInference:      opts.noAI,
		AllowEmptyDocument: !opts.failEmpty,
		BestEffort:         opts.bestEffort,
		AllowedTypes:       constants.AsStringSlice(),
	}, extractor, inferrer)

	res, err := processor.ProcessFile(ctx, path)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		data, err := output.RenderJSON(res)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(output.RenderHuman(res))
	}

	if opts.exportPath != "" {
		if err := output.Export(opts.exportPath, res); err != nil {
			return err
		}
		if !opts.quiet && !opts.jsonOutput {
			fmt.Printf("exported to %s\n", opts.exportPath)
		}
	}
	return nil
}
