package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
	"google.golang.org/api/option"

	"colloquium/cmd/buildCFG"
	"colloquium/internal/api/api"
	rabbitReader "colloquium/internal/consumerWorker"
	"colloquium/internal/mailer"
	"colloquium/internal/notify"
	"colloquium/internal/rabbit"
	"colloquium/internal/repo"
	"colloquium/internal/service"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "COLLOQUIUM"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	storageCfg, err := buildCFG.BuildStorageConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build storage config")
	}
	store, closeStore, err := openStore(cfg, storageCfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer closeStore()

	repository, err := repo.NewRepository(store, storageCfg.Tables, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}

	var sender mailer.Sender = mailer.NewLogSender(&log)
	if smtpCfg := buildCFG.BuildSMTPConfig(cfg); smtpCfg.Enabled() {
		sender = mailer.NewSMTPSender(smtpCfg, &log)
		log.Info().Str("host", smtpCfg.Host).Msg("SMTP sender configured")
	}
	mailCfg := buildCFG.BuildMailConfig(cfg)
	dispatcher := mailer.NewDispatcher(sender, mailCfg, &log)

	notifyCfg, err := buildCFG.BuildNotifyConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build notify config")
	}
	direct := notify.NewDirect(dispatcher, notifyCfg.Timeout, &log)
	var notifier notify.Notifier = direct

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	var reader *rabbitReader.Reader
	if notifyCfg.Mode == buildCFG.NotifyQueue {
		rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
		}
		rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rmq.Close()

		reader = rabbitReader.NewReader(rmq, dispatcher, notifyCfg.Timeout)
		reader.Start(workerCtx)
		notifier = notify.NewQueued(rmq, direct, &log)
	}

	serviceInstance := service.NewService(repository, notifier, &log, mailCfg.QR.Size)
	app := api.NewRouters(&api.Routers{Service: serviceInstance, Mode: serverCfg.Mode})

	srv := &http.Server{
		Addr:              ":" + serverCfg.Port,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Msgf("Error shutting down server: %v", err)
	}

	cancelWorkers()
	if reader != nil {
		reader.Stop()
	}
	direct.Wait()

	log.Info().Msg("Shutdown complete")
}

// openStore builds the configured backend. The returned func releases it.
func openStore(cfg *config.Config, sc buildCFG.StorageConfig, log *zerolog.Logger) (repo.Store, func(), error) {
	switch sc.Driver {
	case buildCFG.DriverXLSX:
		s, err := repo.NewXLSXStore(sc.XLSXPath, log)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close workbook")
			}
		}, nil

	case buildCFG.DriverSheets:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var opts []option.ClientOption
		if sc.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(sc.CredentialsFile))
		}
		s, err := repo.NewSheetsStore(ctx, sc.SpreadsheetID, log, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil

	case buildCFG.DriverPostgres:
		masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build DB config: %w", err)
		}
		db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		s, err := repo.NewPostgresStore(db, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("Database connected successfully")

		migrationPath := sc.Migrations
		if !filepath.IsAbs(migrationPath) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, nil, fmt.Errorf("cannot get working directory: %w", err)
			}
			migrationPath = filepath.Join(cwd, migrationPath)
		}
		if err := s.MigrateUp(migrationPath); err != nil {
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		return s, func() {
			if sc.RollbackOnShutdown {
				log.Info().Msg("Rolling back migrations...")
				if err := s.MigrateDown(migrationPath); err != nil {
					log.Error().Err(err).Msg("failed to rollback migrations")
				}
			}
			if err := db.Master.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close DB")
			}
		}, nil

	default:
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return repo.NewMemoryStore(), func() {}, nil
	}
}
