package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"

	"github.com/classmate-dev/go-accounts"
	"github.com/classmate-dev/go-accounts/config"
	"github.com/classmate-dev/go-accounts/mailer"
	"github.com/classmate-dev/go-accounts/media"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zl, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zl.Sync()

	logger := newZapAdapter(zl)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer stop()

	db, err := openDB(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	repo := accounts.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	smtpMailer := mailer.NewSMTPMailer(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUsername,
		cfg.SMTPPassword,
		cfg.SMTPFrom,
		cfg.SMTPSenderName,
	)

	dispatcher := mailer.NewDispatcher(smtpMailer,
		mailer.WithLogger(logger.Named("mailer")),
	)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	sessions := accounts.NewSessionManager(cfg).
		WithLogger(logger.Named("sessions"))

	service := accounts.NewService(repo, cfg).
		WithLogger(logger.Named("accounts")).
		WithNotifier(dispatcher).
		WithSessionIssuer(sessions)

	if cfg.S3Bucket != "" {
		store, err := media.NewS3Store(ctx, media.Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			BaseEndpoint:    cfg.S3Endpoint,
		})
		if err != nil {
			return fmt.Errorf("init media store: %w", err)
		}
		service.WithMedia(store)
	} else {
		logger.Warn("no media bucket configured, profile picture uploads disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:           "go-accounts",
		EnablePrintRoutes: true,
	})

	ctrl := accounts.NewController(service, sessions).
		WithLogger(logger.Named("http"))
	ctrl.RegisterRoutes(app.Group("/api/v1/accounts"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()

	logger.Info("server started", "port", cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return app.Shutdown()
	}
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*accounts.Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
