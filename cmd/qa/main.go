// Command qa is the terminal client of the question answering service.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sozercan/qa-mole/internal/client"
	"github.com/sozercan/qa-mole/internal/config"
	"github.com/sozercan/qa-mole/internal/logging"
)

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	verbose    bool
	serverURL  string
	timeout    time.Duration
	configFile string

	cfg       *config.Config
	logCloser io.Closer
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "qa",
		Short: "Ask questions about a passage of text",
		Long: `qa talks to the question answering service.

A passage ("context") and a question go in; an answer span copied from the
passage and a confidence score come out. "qa example" pre-fills the form with
a sample passage from the service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVarP(&a.serverURL, "server", "s", "", "Service base URL (default from config: client.base_url)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "HTTP timeout (default from config: client.timeout)")
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to a YAML config file")

	root.AddCommand(a.newExampleCmd())
	root.AddCommand(a.newAskCmd())
	root.AddCommand(a.newHealthCmd())
	root.AddCommand(a.newUICmd())
	root.AddCommand(a.newHistoryCmd())

	return root, a
}

// execute runs the command line. The log file is closed even when the
// command fails, since cobra skips the post-run hooks after an error.
func (a *app) execute(root *cobra.Command) error {
	defer a.closeLog()
	return root.Execute()
}

func (a *app) closeLog() {
	if a.logCloser == nil {
		return
	}
	if err := a.logCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
	a.logCloser = nil
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.serverURL != "" {
		cfg.Client.BaseURL = a.serverURL
	}
	if a.timeout > 0 {
		cfg.Client.Timeout = a.timeout
	}
	a.cfg = cfg

	// the terminal UI owns the screen, so its logs only go to the log file
	var w io.Writer = cmd.ErrOrStderr()
	if cmd.Name() == "ui" {
		w = io.Discard
	}
	logger, closer, err := logging.New(cfg.Log, w, a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)
	a.logCloser = closer

	slog.Debug("client configured", "server", cfg.Client.BaseURL, "timeout", cfg.Client.Timeout)
	return nil
}

func (a *app) client() *client.Client {
	return client.New(a.cfg.Client.BaseURL, a.cfg.Client.Timeout)
}

func main() {
	root, a := newRootCmd()
	if err := a.execute(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
