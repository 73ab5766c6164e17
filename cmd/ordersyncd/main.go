package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/app"
	"github.com/vladislavdragonenkov/ordersync/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if os.Getenv("ORDERSYNC_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}
}

// readConfig формирует конфигурацию приложения из переменных окружения.
func readConfig() app.Config {
	cfg := app.DefaultConfig()
	if v := os.Getenv("ORDERSYNC_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("ORDERSYNC_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("ORDERSYNC_BACKEND_URL"); v != "" {
		cfg.BackendBaseURL = v
	}
	if v := os.Getenv("ORDERSYNC_WS_URL"); v != "" {
		cfg.WSURL = v
	}
	cfg.TenantID = os.Getenv("ORDERSYNC_TENANT_ID")
	cfg.AuthToken = os.Getenv("ORDERSYNC_AUTH_TOKEN")
	if v := os.Getenv("ORDERSYNC_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		} else {
			log.WithError(err).Warnf("некорректный ORDERSYNC_REQUEST_TIMEOUT %q, используем %s", v, cfg.RequestTimeout)
		}
	}
	return cfg
}

func main() {
	// .env опционален: в контейнере переменные приходят из окружения.
	_ = godotenv.Load()

	setupLogger()
	cfg := readConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"listen_addr":  cfg.ListenAddr,
		"metrics_addr": cfg.MetricsAddr,
		"backend_url":  cfg.BackendBaseURL,
		"tenant_id":    cfg.TenantID,
		"version":      version.GetVersion(),
		"commit":       version.GetCommit(),
		"build_date":   version.GetDate(),
	}).Info("запускаем ordersync")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("ordersync остановлен")
}
