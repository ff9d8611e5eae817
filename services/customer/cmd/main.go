// Customer Service — реестр клиентов сервиса доставки.
// Принимает регистрации по HTTP и пишет событие customer в outbox
// атомарно с записью в реестр. Outbox Sweeper публикует события в Kafka,
// по ним Order Service ведёт свою реплику клиентов.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"example.com/food-ordering/pkg/circuitbreaker"
	"example.com/food-ordering/pkg/config"
	dbpkg "example.com/food-ordering/pkg/db"
	"example.com/food-ordering/pkg/healthcheck"
	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/metrics"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/pkg/tracing"
	"example.com/food-ordering/services/customer/internal/handler"
	"example.com/food-ordering/services/customer/internal/repository"
	"example.com/food-ordering/services/customer/internal/service"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})

	log := logger.With().Str("service", "customer-service").Logger()

	log.Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.HTTP.Port).
		Msg("Запуск Customer Service")

	// === Observability: Tracing ===

	shutdownTracing, err := tracing.InitTracer(tracing.Config{
		ServiceName:    "customer-service",
		JaegerEndpoint: cfg.Jaeger.OTLPEndpoint(),
		Enabled:        cfg.Jaeger.Enabled,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Не удалось инициализировать tracing")
	}

	// === Подключение к зависимостям ===

	db, err := dbpkg.ConnectMySQL(cfg.MySQL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка подключения к MySQL")
	}
	log.Info().Msg("Подключение к MySQL установлено")

	// ReadinessChecker для /readyz
	readinessCheck := healthcheck.Composite(
		func(ctx context.Context) error { return healthcheck.CheckMySQL(ctx, db) },
	)

	// === Observability: Metrics ===

	var metricsServer *metrics.Server
	var metricsWg sync.WaitGroup
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(
			cfg.Metrics.Addr(),
			"customer-service",
			metrics.WithReadinessCheck(readinessCheck),
		)
		metricsWg.Add(1)
		go func() {
			defer metricsWg.Done()
			if err := metricsServer.Start(); err != nil {
				log.Error().Err(err).Msg("Ошибка Metrics Server")
			}
		}()
	}

	// === Инициализация бизнес-логики ===

	customerRepo := repository.NewCustomerRepository(db)

	// Outbox для событий customer
	eventOutbox := outbox.NewRepository(db, service.TableEventOutbox)

	store := service.NewStore(db, customerRepo, eventOutbox)
	customerService := service.NewCustomerService(store)

	// Контекст для graceful shutdown фоновых воркеров
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Kafka: outbox sweeper ===

	var kafkaProducer *kafka.Producer
	var workersWg sync.WaitGroup

	if len(cfg.Kafka.Brokers) > 0 {
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Инициализация Kafka")

		kafkaProducer, err = kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
		if err != nil {
			log.Fatal().Err(err).Msg("Ошибка создания Kafka Producer")
		}

		// Circuit Breaker вокруг продюсера для outbox sweeper
		breaker := circuitbreaker.New("customer-outbox-producer")
		breakerProducer := circuitbreaker.WrapProducer(breaker, kafkaProducer)

		// Sweeper отправляет события customer из outbox в Kafka
		sweeper := outbox.NewSweeper(eventOutbox, breakerProducer, outbox.SweeperConfig{
			PollInterval:    cfg.Outbox.PollInterval,
			BatchSize:       cfg.Outbox.BatchSize,
			MaxRetries:      cfg.Outbox.MaxRetries,
			CleanupInterval: cfg.Outbox.CleanupInterval,
			Retention:       cfg.Outbox.Retention,
		}, service.TableEventOutbox)

		workersWg.Add(1)
		go func() {
			defer workersWg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("Паника в Outbox Sweeper")
				}
			}()
			sweeper.Run(ctx)
		}()

		log.Info().Msg("Customer Service: outbox sweeper запущен")
	} else {
		log.Warn().Msg("Kafka не настроена — публикация событий customer отключена")
	}

	// === HTTP сервер ===

	router := handler.NewRouter(handler.RouterConfig{
		CustomerHandler: handler.NewCustomerHandler(customerService),
		ReadinessCheck:  handler.ReadinessChecker(readinessCheck),
		Debug:           cfg.IsDevelopment(),
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: router.Engine(),
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Запуск HTTP сервера")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Ошибка HTTP сервера")
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Получен сигнал завершения, останавливаем сервер...")

	// Останавливаем HTTP сервер — перестаём принимать регистрации
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки HTTP сервера")
	}

	// Отменяем контекст — останавливаем sweeper
	cancel()
	workersWg.Wait()

	// Закрываем Kafka Producer
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия Kafka Producer")
		}
	}

	// Закрываем подключение к MySQL
	if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия MySQL")
		}
	}

	// Останавливаем Metrics Server и ждём завершения горутины
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Ошибка остановки Metrics Server")
		}
		metricsWg.Wait()
	}

	// Останавливаем Tracing
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Ошибка остановки Tracing")
		}
	}

	log.Info().Msg("Customer Service остановлен")
}
