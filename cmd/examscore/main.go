// Command examscore trains the exam-score model and serves predictions.
//
// Without a subcommand it shows the interactive menu:
//
//	1. Train Model (Run ETL Pipeline)
//	2. Make a Prediction
//	3. Exit
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "examscore"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

func rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Student exam score predictor",
		Long: `examscore predicts a student's exam score from study and lifestyle habits.

It trains five regressors on a labelled dataset (ingest, clean, encode,
select features, fit, evaluate), keeps the best one on disk and scores
single records from the terminal or a small web form.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(f, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.menu()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format (console, json)")

	cmd.AddCommand(&cobra.Command{
		Use:   "train",
		Short: "Run the ETL pipeline and persist the best model",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(f, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.train()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "predict",
		Short: "Prompt for the seven habits and print the estimated score",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(f, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.predict()
		},
	})

	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction form over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(f, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.AddCommand(serve)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}
