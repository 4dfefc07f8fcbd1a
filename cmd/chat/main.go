package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Rrens/alap/internal/app"
	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/logging"
	"github.com/joho/godotenv"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	persona    string
	provider   string
	width      int
	verbose    bool
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:          "alap-chat",
		Short:        "Talk to the ALAP assistant from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	root.Flags().StringVar(&opts.configPath, "config", "", "config file (default $CONFIG_PATH or ./configs/config.yaml)")
	root.Flags().StringVar(&opts.persona, "persona", "", "persona profile to use")
	root.Flags().StringVar(&opts.provider, "provider", "", "LLM provider to use (gemini, openai, anthropic, deepseek, ollama, scripted)")
	root.Flags().IntVar(&opts.width, "width", 100, "wrap width for rendered answers")
	root.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at info level")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	_ = godotenv.Load()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logCloser, err := logging.Setup(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	r := newREPL(a.Chat, line, os.Stdout, opts.width)
	r.remember = line.AppendHistory
	return r.run(ctx)
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.persona != "" {
		cfg.Persona = opts.persona
	}
	if opts.provider != "" {
		cfg.LLM.DefaultProvider = opts.provider
		if p, ok := cfg.Personas[cfg.Persona]; ok {
			p.Provider = opts.provider
			cfg.Personas[cfg.Persona] = p
		}
	}
	if !opts.verbose {
		cfg.Logging.Level = "warn"
	}
	if cfg.Persona == "" {
		return nil, fmt.Errorf("no persona selected")
	}
	return cfg, nil
}
