// Package main runs one pass over due scheduled campaigns and exits. Meant
// for external cron setups where the in-process scheduler is disabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ufukcicekdev/RealInvest/config"
	"github.com/ufukcicekdev/RealInvest/internal/newsletter"
	"github.com/ufukcicekdev/RealInvest/internal/settings"
	"github.com/ufukcicekdev/RealInvest/pkg/database"
	"github.com/ufukcicekdev/RealInvest/pkg/storage"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall deadline for the run")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	subscriberRepo := newsletter.NewSubscriberRepository(pool)
	campaignRepo := newsletter.NewCampaignRepository(pool)
	logRepo := newsletter.NewLogRepository(pool)
	settingsRepo := settings.NewRepository(pool)
	renderer := newsletter.NewRenderer(cfg.Site.BaseURL,
		storage.PublicURLResolver(cfg.AWS.MediaBucket, cfg.AWS.Region))
	orch := newsletter.NewOrchestrator(subscriberRepo, campaignRepo, logRepo, settingsRepo, newsletter.NewSMTPDialer(), renderer, logger)
	runner := newsletter.NewRunner(campaignRepo, orch, logger)

	outcomes, err := runner.Trigger(ctx)
	if err != nil {
		logger.Fatal("send due campaigns", zap.Error(err))
	}

	if len(outcomes) == 0 {
		fmt.Println("no scheduled campaigns due")
		return
	}
	for _, o := range outcomes {
		fmt.Printf("[%s] %s: %s (%d sent, %d failed of %d)\n",
			o.Level, o.Title, o.Message, o.SentCount, o.FailedCount, o.TotalRecipients)
	}
	for _, o := range outcomes {
		if o.Level == newsletter.LevelError {
			os.Exit(1)
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
