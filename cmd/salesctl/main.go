package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/salesadmin/cmd/salesctl/cli"
	"github.com/odyssey-erp/salesadmin/internal/backend"
	"github.com/odyssey-erp/salesadmin/internal/sales/transactions"
)

type rootOptions struct {
	backendURL    string
	timeout       time.Duration
	submitTimeout time.Duration
	verbose       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := newRootCommand().run(ctx)
	stop()
	os.Exit(code)
}

type rootCommand struct {
	cmd      *cobra.Command
	opts     rootOptions
	exitCode int
}

func (r *rootCommand) run(ctx context.Context) int {
	if err := r.cmd.ExecuteContext(ctx); err != nil {
		return cli.ExitInvalid
	}
	return r.exitCode
}

func newRootCommand() *rootCommand {
	root := &rootCommand{}
	root.cmd = &cobra.Command{
		Use:          "salesctl",
		Short:        "Price and submit sales transaction drafts",
		SilenceUsage: true,
	}
	defaultBackend := os.Getenv("BACKEND_URL")
	if defaultBackend == "" {
		defaultBackend = "http://localhost:3000"
	}
	flags := root.cmd.PersistentFlags()
	flags.StringVar(&root.opts.backendURL, "backend", defaultBackend, "backend base URL")
	flags.DurationVar(&root.opts.timeout, "timeout", 10*time.Second, "backend request timeout")
	flags.DurationVar(&root.opts.submitTimeout, "submit-timeout", 15*time.Second, "upper bound for a submission")
	flags.BoolVarP(&root.opts.verbose, "verbose", "v", false, "log backend calls to stderr")

	root.cmd.AddCommand(root.quoteCommand(), root.submitCommand(), root.codeCommand())
	return root
}

func (r *rootCommand) logger() *slog.Logger {
	level := slog.LevelWarn
	if r.opts.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (r *rootCommand) salesCLI() (*cli.SalesCLI, error) {
	logger := r.logger()
	client := backend.NewClient(backend.Options{
		BaseURL: r.opts.backendURL,
		Timeout: r.opts.timeout,
		Logger:  logger,
	})
	return cli.NewSalesCLI(client, client,
		transactions.WithTimeout(r.opts.submitTimeout),
		transactions.WithLogger(logger),
	)
}

func (r *rootCommand) quoteCommand() *cobra.Command {
	var opts cli.QuoteOptions
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute line amounts, totals and validation for a draft file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			r.exitCode = cli.QuoteCommand(opts)
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "draft YAML file, - for stdin")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (r *rootCommand) submitCommand() *cobra.Command {
	var opts cli.SubmitOptions
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate a draft file and post it to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sales, err := r.salesCLI()
			if err != nil {
				return err
			}
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			r.exitCode = sales.SubmitCommand(cmd.Context(), opts)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "draft YAML file, - for stdin")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "print the stored transaction as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (r *rootCommand) codeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "code",
		Short: "Print the next transaction code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sales, err := r.salesCLI()
			if err != nil {
				return err
			}
			r.exitCode = sales.CodeCommand(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}
}
