package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Akenaide/byemail/pkg/config"
	"github.com/Akenaide/byemail/pkg/httpserver"
	"github.com/Akenaide/byemail/pkg/mailbox"
	"github.com/Akenaide/byemail/pkg/mailstore"
	"github.com/Akenaide/byemail/pkg/smtpserver"
)

var (
	configPath string
	useMemory  bool
)

func main() {
	root := &cobra.Command{
		Use:           "byemail",
		Short:         "Development-time mail capture service",
		Long:          "byemail captures SMTP deliveries for configured domains and makes them browsable over an HTTP API, grouped by sender.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file")

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the SMTP capture and HTTP query servers",
		RunE:  runStart,
	}
	startCmd.Flags().BoolVar(&useMemory, "memory", false, "Use the in-memory store instead of Redis (nothing survives a restart)")

	root.AddCommand(startCmd, newGenerateKeysCmd(), newDNSConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)

	if len(cfg.Accept) == 0 {
		return fmt.Errorf("no accepted domains configured; set accept in the config file or BYEMAIL_ACCEPT")
	}

	ctx := context.Background()
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	filter := smtpserver.NewFilter(cfg.Accept)
	aggregator := mailbox.NewAggregator(store)
	ingestor := smtpserver.NewIngestor(store, aggregator)

	smtpServer := smtpserver.NewServer(smtpserver.Config{
		Host:              cfg.SMTP.Host,
		Port:              cfg.SMTP.Port,
		Domain:            cfg.SMTP.Domain,
		AllowInsecureAuth: true,
		ReadTimeout:       time.Duration(cfg.SMTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.SMTP.WriteTimeoutSec) * time.Second,
		MaxMessageBytes:   cfg.SMTP.MaxMessageBytes,
		MaxRecipients:     cfg.SMTP.MaxRecipients,
	}, filter, ingestor)

	httpServer := httpserver.New(httpserver.Config{
		Host:    cfg.HTTP.Host,
		Port:    cfg.HTTP.Port,
		WebRoot: cfg.HTTP.WebRoot,
	}, store)

	errs := make(chan error, 2)
	go func() { errs <- smtpServer.Start() }()
	go func() { errs <- httpServer.Start() }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errs:
		if err != nil {
			slog.Error("server failed", "error", err)
		}
	}

	if err := smtpServer.Stop(); err != nil {
		slog.Error("failed to stop SMTP server", "error", err)
	}
	if err := httpServer.Stop(); err != nil {
		slog.Error("failed to stop HTTP server", "error", err)
	}
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (mailstore.Store, error) {
	if useMemory {
		slog.Warn("using in-memory store, captured mail will not survive a restart")
		return mailstore.NewMemoryStore(), nil
	}
	return mailstore.NewRedisStore(ctx, mailstore.RedisConfig{
		Addr:      cfg.Redis.Addr,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		KeyPrefix: cfg.Redis.KeyPrefix,
	})
}

func setupLogger(levelName string) {
	level := new(slog.LevelVar)
	switch strings.ToLower(levelName) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
