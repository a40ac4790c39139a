package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aurora-ml/relay/pkg/cli"
	"aurora-ml/relay/pkg/failover"
	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/usage/costs"
	"aurora-ml/relay/pkg/usage/recorder"
)

var generateFlags struct {
	model       string
	provider    string
	maxTokens   int
	temperature float64
	topP        float64
	stop        []string
	timeout     time.Duration
	format      string
}

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Run one generation through the failover chain",
	Long: `Run a single generation request through the provider failover chain
and print the completion.

The prompt is taken from the command line arguments, or from stdin when no
arguments are given. The request walks the same chain as the server: circuit
breakers, retries, and failover all apply, and usage is recorded when the
ledger is enabled.

Examples:
  # Generate from an argument
  relay generate "Explain circuit breakers in one paragraph"

  # Generate from stdin
  cat prompt.txt | relay generate

  # Pin the first provider to try
  relay generate --provider anthropic "Write a haiku about fallbacks"

  # Structured output for scripting
  relay generate --format json "Name three retry strategies"`,
	Args: cobra.ArbitraryArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateFlags.model, "model", "m", "", "model override")
	generateCmd.Flags().StringVarP(&generateFlags.provider, "provider", "p", "", "provider to move to the front of the chain")
	generateCmd.Flags().IntVar(&generateFlags.maxTokens, "max-tokens", 0, "completion token cap")
	generateCmd.Flags().Float64VarP(&generateFlags.temperature, "temperature", "t", 0, "sampling temperature")
	generateCmd.Flags().Float64Var(&generateFlags.topP, "top-p", 0, "nucleus sampling parameter")
	generateCmd.Flags().StringSliceVar(&generateFlags.stop, "stop", nil, "stop sequences")
	generateCmd.Flags().DurationVar(&generateFlags.timeout, "timeout", 2*time.Minute, "overall request timeout")
	generateCmd.Flags().StringVarP(&generateFlags.format, "format", "f", "text", "output format: text, json")
}

// generateResult is the JSON shape of a one-shot generation.
type generateResult struct {
	Text      string               `json:"text"`
	Model     string               `json:"model"`
	Provider  providers.Kind       `json:"provider"`
	Usage     providers.TokenUsage `json:"usage"`
	LatencyMS int64                `json:"latency_ms"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(generateFlags.format)
	if err != nil {
		return err
	}

	prompt, err := resolvePrompt(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	// Logs go to stderr so the completion on stdout stays pipeable.
	log, err := newLogger(cfg.Telemetry.Logging, "warn", os.Stderr)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	calculator := costs.NewCalculator(cfg.Usage.Pricing)

	// One-shot calls share the server's ledger when it is enabled.
	var observers []failover.Observer
	if cfg.Usage.IsEnabled() {
		store, err := openUsageStorage(cfg, log.Logger)
		if err != nil {
			log.Warn("usage ledger unavailable", "error", err)
		} else {
			defer store.Close()

			rec := recorder.NewRecorder(store, calculator, &recorder.Config{
				Enabled:      true,
				AsyncBuffer:  cfg.Usage.AsyncBuffer,
				WriteTimeout: cfg.Usage.WriteTimeout(),
			}, log.Logger)
			defer rec.Close()
			observers = append(observers, rec)
		}
	}

	orch, err := buildOrchestrator(cfg, log.Logger, observers...)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	defer orch.Close()

	ctx, stop := cli.SignalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, generateFlags.timeout)
	defer cancel()

	resp, err := orch.Generate(ctx, &providers.GenerationRequest{
		Prompt:      prompt,
		Model:       generateFlags.model,
		Provider:    providers.Kind(generateFlags.provider),
		Temperature: generateFlags.temperature,
		MaxTokens:   generateFlags.maxTokens,
		TopP:        generateFlags.topP,
		Stop:        generateFlags.stop,
	})
	if err != nil {
		return cli.NewCommandError("generate", err)
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(os.Stdout, generateResult{
			Text:      resp.Text,
			Model:     resp.Model,
			Provider:  resp.Provider,
			Usage:     resp.Usage,
			LatencyMS: resp.Latency.Milliseconds(),
		})
	}

	fmt.Println(resp.Text)
	if verbose {
		fmt.Fprintf(os.Stderr, "\nprovider=%s model=%s tokens=%d latency=%s\n",
			resp.Provider, resp.Model, resp.Usage.TotalTokens, resp.Latency)
	}
	return nil
}

// resolvePrompt joins the argument words, falling back to stdin when no
// arguments were given.
func resolvePrompt(args []string, stdin io.Reader) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt != "" {
		return prompt, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}
	prompt = strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given (pass it as an argument or on stdin)")
	}
	return prompt, nil
}
