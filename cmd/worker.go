package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/analysis"
	"github.com/spigell/cv-screener/internal/documents"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/queue"
	"github.com/spigell/cv-screener/internal/store"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume analysis requests from AMQP and store profiles in Postgres",
	Run: func(_ *cobra.Command, _ []string) {
		runWorker()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().IntP("consumers", "c", 1, "how many queue consumers run at once")

	viper.BindPFlag("worker.consumers", workerCmd.Flags().Lookup("consumers"))
}

func runWorker() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cv-screener worker", zap.String("version", version))

	if config.Worker.DatabaseURL == "" {
		logger.Fatal("database url is required",
			zap.String("hint", "set DATABASE_URL environment variable or the 'worker.database-url' key in the configuration file"),
		)
	}
	if config.Worker.URL == "" {
		logger.Fatal("amqp url is required",
			zap.String("hint", "set AMQP_URL environment variable or the 'worker.amqp-url' key in the configuration file"),
		)
	}

	catalog, err := catalogFromConfig(config)
	if err != nil {
		logger.Fatal("building the skill catalog", zap.Error(err))
	}

	db, err := store.Open(ctx, config.Worker.DatabaseURL)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		logger.Fatal("migrating the database", zap.Error(err))
	}

	var fetcher queue.Fetcher
	if config.Source != nil && config.Source.S3 != nil {
		s3Source, err := documents.NewS3Source(ctx, *config.Source.S3)
		if err != nil {
			logger.Fatal("preparing the s3 source", zap.Error(err))
		}
		fetcher = s3Source
	} else {
		logger.Warn("no s3 source configured, only inline texts can be analyzed")
	}

	worker := queue.NewWorker(config.Worker.Config, analysis.New(catalog, logger), fetcher, store.New(db), logger)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("worker stopped", zap.Error(err))
	}

	logger.Info("worker stopped")
}
