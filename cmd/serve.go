package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/repeticio/repeticio/internal/authoring"
	"github.com/repeticio/repeticio/internal/devserver"
	"github.com/repeticio/repeticio/internal/llm"
	"github.com/repeticio/repeticio/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local practice backend",
	Long: `Serves the exercise endpoints the client talks to. Exercises are
authored by an LLM when a provider is configured (REPETICIO_LLM_PROVIDER, or
one of ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY, OPENROUTER_API_KEY)
and come from the built-in seed bank otherwise or when authoring fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if lvl, _ := cmd.Flags().GetString("level"); lvl != "" {
			cfg.Server.Level = lvl
		}
		if err := cfg.ValidateServer(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		level, err := authoring.ParseLevel(cfg.Server.Level)
		if err != nil {
			return err
		}

		log := logger.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		ctx := cmd.Context()

		gen, err := buildGenerator(cmd, log)
		if err != nil {
			return err
		}

		srv, err := devserver.New(devserver.Options{
			Generator:      gen,
			Level:          level,
			FetchPath:      cfg.Backend.FetchEndpoint,
			SubmitPath:     cfg.Backend.SubmitEndpoint,
			RatePath:       cfg.Backend.RateEndpoint,
			TokenSecret:    cfg.Auth.TokenSecret,
			AllowedUsers:   cfg.Server.AllowedUsers,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RateLimit:      cfg.Server.RateLimit,
			RateInterval:   cfg.Server.RateInterval,
			GinMode:        cfg.Server.GinMode,
			Logger:         log,
		})
		if err != nil {
			return err
		}
		return srv.Run(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from server.addr, :8080)")
	serveCmd.Flags().String("level", "", "Learner level: A1, A2 or B1")
	serveCmd.Flags().Bool("seed-only", false, "Never call an LLM; serve the built-in exercises")
}

// buildGenerator returns the seed bank, or an LLM generator backed by it.
func buildGenerator(cmd *cobra.Command, log zerolog.Logger) (authoring.Generator, error) {
	seeds := authoring.NewSeedBank()
	if seedOnly, _ := cmd.Flags().GetBool("seed-only"); seedOnly {
		log.Info().Msg("serving seed exercises only")
		return seeds, nil
	}

	llmCfg, ok, err := resolveLLMConfig()
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info().Msg("no LLM provider configured, serving seed exercises")
		return seeds, nil
	}

	provider, err := llm.NewProvider(cmd.Context(), llmCfg, log)
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}
	log.Info().Str("provider", llmCfg.Provider).Str("model", provider.ModelID()).Msg("authoring exercises with LLM")
	return authoring.WithFallback(
		authoring.NewLLMGenerator(provider, authoring.DefaultConfig()),
		seeds,
		log,
	), nil
}

// resolveLLMConfig prefers an explicit REPETICIO_LLM_PROVIDER and otherwise
// discovers a provider from the standard API key variables.
func resolveLLMConfig() (llm.Config, bool, error) {
	if os.Getenv("REPETICIO_LLM_PROVIDER") != "" {
		cfg, err := llm.ConfigFromEnv()
		if err != nil {
			return llm.Config{}, false, err
		}
		if err := cfg.Validate(); err != nil {
			return llm.Config{}, false, err
		}
		return cfg, true, nil
	}
	cfg, ok := llm.DiscoverConfig()
	return cfg, ok, nil
}
