package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailtemplate/internal/config"
	"mailtemplate/internal/queue"
	"mailtemplate/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics and render preview over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), root.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			return server.New(a.service, a.metrics, a.logger).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func newWorkerCmd(root *rootOptions) *cobra.Command {
	var noHTTP bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume email requests from the queue, render and send them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, root.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.Queue.URL == "" {
				return errors.New("queue URL is required (queue.url or QUEUE_URL)")
			}
			if a.cfg.Mail.DefaultFrom == "" && a.cfg.Mail.Provider != config.ProviderLog {
				return errors.New("sender address is required (mail.default_from or DEFAULT_FROM_ADDRESS)")
			}

			sender, err := a.sender(ctx)
			if err != nil {
				return err
			}
			client, err := a.sqsClient(ctx)
			if err != nil {
				return err
			}

			handler := queue.NewHandler(a.service, sender,
				queue.WithProvider(a.cfg.Mail.Provider),
				queue.WithHandlerLogger(a.logger),
				queue.WithHandlerMetrics(a.metrics),
			)
			consumer, err := queue.NewConsumer(client, handler, queue.Config{
				QueueURL:          a.cfg.Queue.URL,
				MaxMessages:       a.cfg.Queue.MaxMessages,
				WaitTime:          a.cfg.Queue.WaitTime,
				VisibilityTimeout: a.cfg.Queue.VisibilityTimeout,
				Concurrency:       a.cfg.Worker.Concurrency,
				MessageTimeout:    a.cfg.Worker.MessageTimeout,
				DedupTTL:          a.cfg.Worker.DedupTTL,
			}, queue.WithLogger(a.logger), queue.WithMetrics(a.metrics))
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return consumer.Run(gctx)
			})
			if !noHTTP {
				g.Go(func() error {
					return server.New(a.service, a.metrics, a.logger).ListenAndServe(gctx, a.cfg.HTTP.Addr)
				})
			}

			a.logger.Info("worker running", zap.String("provider", a.cfg.Mail.Provider))
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "Do not start the health and metrics server")
	return cmd
}
