package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"mailtemplate/internal/config"
	"mailtemplate/internal/logger"
	"mailtemplate/internal/mailer"
	"mailtemplate/internal/mailer/resend"
	"mailtemplate/internal/mailer/ses"
	"mailtemplate/internal/mailer/smtp"
	"mailtemplate/internal/metrics"
	"mailtemplate/internal/templates"
	"mailtemplate/pkg/templater"
)

// app holds the components shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	service *templater.Service

	aws *aws.Config
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level, Service: "mailtemplate"})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	a := &app{cfg: cfg, logger: log, metrics: m}

	store, err := a.loadStore(ctx)
	if err != nil {
		return nil, err
	}
	m.SetTemplatesLoaded(store.Len())
	log.Info("templates loaded", zap.String("source", cfg.Templates.Source), zap.Int("documents", store.Len()))

	a.service = templater.New(store,
		templater.WithLogger(log),
		templater.WithFallbackLanguage(cfg.Templates.FallbackLanguage),
	)
	return a, nil
}

func (a *app) loadStore(ctx context.Context) (*templates.Store, error) {
	switch a.cfg.Templates.Source {
	case config.SourceDir:
		return templates.LoadFS(os.DirFS(a.cfg.Templates.Dir), ".")
	case config.SourceS3:
		awsCfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
			if a.cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(a.cfg.AWS.Endpoint)
				o.UsePathStyle = true
			}
		})
		return templates.LoadS3(ctx, client, a.cfg.Templates.Bucket, a.cfg.Templates.Prefix)
	default:
		return templates.LoadEmbedded()
	}
}

// awsConfig loads the shared AWS configuration once.
func (a *app) awsConfig(ctx context.Context) (*aws.Config, error) {
	if a.aws != nil {
		return a.aws, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.cfg.AWS.Region),
	}
	if a.cfg.AWS.AccessKey != "" && a.cfg.AWS.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.cfg.AWS.AccessKey, a.cfg.AWS.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	a.aws = &awsCfg
	return a.aws, nil
}

func (a *app) sqsClient(ctx context.Context) (*sqs.Client, error) {
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sqs.NewFromConfig(*awsCfg, func(o *sqs.Options) {
		if a.cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.cfg.AWS.Endpoint)
		}
	}), nil
}

func (a *app) sender(ctx context.Context) (mailer.Sender, error) {
	mc := a.cfg.Mail
	from := mailer.Address(mc.FromName, mc.DefaultFrom)

	switch mc.Provider {
	case config.ProviderResend:
		return resend.New(resend.Config{
			APIKey:      mc.Resend.APIKey,
			SenderEmail: mc.DefaultFrom,
			SenderName:  mc.FromName,
		}), nil
	case config.ProviderSMTP:
		return smtp.New(smtp.Config{
			Host:     mc.SMTP.Host,
			Port:     mc.SMTP.Port,
			Username: mc.SMTP.Username,
			Password: mc.SMTP.Password,
			From:     from,
			TLSMode:  mc.SMTP.TLSMode,
		}, a.logger), nil
	case config.ProviderLog:
		return mailer.NewLogSender(a.logger), nil
	default:
		awsCfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		client := sesv2.NewFromConfig(*awsCfg, func(o *sesv2.Options) {
			if a.cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(a.cfg.AWS.Endpoint)
			}
		})
		return ses.New(client, ses.Config{From: from}, a.logger), nil
	}
}

func (a *app) close() {
	_ = a.logger.Sync()
}
