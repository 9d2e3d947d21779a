package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ayusman/signcoach/internal/config"
	"github.com/ayusman/signcoach/internal/logging"
	"github.com/ayusman/signcoach/internal/printer"
)

var (
	envFile   string
	logLevel  string
	logFormat string

	// cfg and logger are ready once the root pre-run has loaded them.
	cfg    config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "signcoach",
	Short: "SignCoach - sign language and emotion practice coach",
	Long: `SignCoach recognises fingerspelled letters, number signs and facial
emotions from camera landmarks and coaches the learner through practice
sessions.

Run "signcoach serve" for the HTTP API and web app, or "signcoach practice"
for a terminal session on the local camera.`,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load settings from this .env file instead of ./.env")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}

// setup loads the configuration and builds the process logger. Flags win
// over the environment.
func setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}

	c, err := config.Load(files...)
	if err != nil {
		return printer.Error("Invalid configuration", err.Error(),
			[]string{"Check the SIGNCOACH_* environment variables and your .env file"})
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}

	l, err := logging.New(cmd.ErrOrStderr(), c.LogLevel, c.LogFormat)
	if err != nil {
		return printer.Error("Invalid logging settings", err.Error(), nil)
	}

	cfg = c
	logger = l
	slog.SetDefault(l)
	return nil
}
