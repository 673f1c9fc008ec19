package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"richinput/internal/app"
	"richinput/internal/config"
	"richinput/internal/logging"
)

// Version is set during build with -ldflags
var version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "richinput",
	Short: "Rich text message composer",
	Long: `richinput is a message composer with markdown shorthand, mentions,
custom emoji and a read-only preview. Without a subcommand it opens the
editor window.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, closer, err := setup()
		if err != nil {
			return err
		}
		defer closer.Close()

		s, err := app.NewSession(cfg, app.WithLogger(log))
		if err != nil {
			return err
		}
		defer s.Close()
		log.Info().Str("version", version).Msg("[main] starting editor")
		return app.NewGame(s, cfg, log).Run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of richinput",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "richinput version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(htmlCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(draftCmd)
}

func setup() (*config.Config, zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, zerolog.Nop(), nil, err
		}
	}
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	return cfg, log, closer, nil
}

// readInput joins args, or reads stdin when there are none.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSuffix(string(b), "\n"), nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
