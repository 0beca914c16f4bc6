// Package main is the vibeshift CLI: the HTTP API server plus one-shot
// transforms from the terminal.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vibeshift/api/internal/app"
	"vibeshift/api/internal/config"
	"vibeshift/api/internal/handle"
	"vibeshift/api/internal/httpserver"
	"vibeshift/api/internal/logging"
	"vibeshift/api/internal/transform"
)

func main() {
	if err := rootCmd(app.NewPipeline).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type pipelineFunc func(cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*transform.Pipeline, error)

type env struct {
	cfg   *config.Config
	log   *zap.Logger
	build pipelineFunc
}

func rootCmd(build pipelineFunc) *cobra.Command {
	var verbose bool
	e := &env{build: build}

	cmd := &cobra.Command{
		Use:           "vibeshift",
		Short:         "Rewrite text through a stylistic lens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.cfg = config.Load()
			log, err := logging.New(e.cfg.LogLevel, verbose)
			if err != nil {
				return err
			}
			e.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(serveCmd(e), transformCmd(e), lensesCmd(e))
	return cmd
}

func serveCmd(e *env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			pipe, err := e.build(e.cfg, e.log, reg)
			if err != nil {
				return err
			}
			h := handle.New(pipe, handle.Limits{
				UIMaxInputLength: e.cfg.UIMaxInputLength,
				UIWarnLength:     e.cfg.UIWarnLength,
			}, e.log)
			if addr == "" {
				addr = ":" + e.cfg.Port
			}
			return httpserver.Run(ctx, addr, httpserver.Routes(h, e.log, reg), e.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :$PORT)")
	return cmd
}

func transformCmd(e *env) *cobra.Command {
	var lensID string
	cmd := &cobra.Command{
		Use:   "transform [text...]",
		Short: "Transform text from the arguments or stdin",
		Example: `  vibeshift transform --lens sales "We shipped the release."
  echo "The meeting ran long." | vibeshift transform --lens corporate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			pipe, err := e.build(e.cfg, e.log, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			res, err := pipe.Transform(ctx, transform.Request{Text: text, Lens: lensID})
			if err != nil {
				// Details are in the log; the user gets the safe message.
				return errors.New(transform.MessageOf(err))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Transformed)
			return err
		},
	}
	cmd.Flags().StringVarP(&lensID, "lens", "l", "corporate", "Lens id")
	return cmd
}

func lensesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "lenses",
		Short: "List available lenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.Registry(e.cfg)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range reg.List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Label, p.Description)
			}
			return tw.Flush()
		},
	}
}

// readInput joins args, or reads all of r when there are none.
func readInput(r io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}
