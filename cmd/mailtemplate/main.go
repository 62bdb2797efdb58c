package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "mailtemplate",
		Short:         "Render, inline and send templated HTML email",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("MAILTEMPLATE_CONFIG"), "YAML config file (env MAILTEMPLATE_CONFIG)")

	root.AddCommand(
		newRenderCmd(opts),
		newListCmd(opts),
		newInlineCmd(),
		newServeCmd(opts),
		newWorkerCmd(opts),
	)
	return root
}
