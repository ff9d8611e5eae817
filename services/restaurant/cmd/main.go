// Restaurant Service — сервис подтверждения заказов рестораном.
// Слушает restaurant-approval-request из Kafka, проверяет оплаченный
// заказ по меню ресторана и кладёт решение в outbox. Outbox Sweeper
// отправляет ответы в Kafka с гарантией at-least-once.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"example.com/food-ordering/pkg/circuitbreaker"
	"example.com/food-ordering/pkg/config"
	dbpkg "example.com/food-ordering/pkg/db"
	"example.com/food-ordering/pkg/healthcheck"
	"example.com/food-ordering/pkg/kafka"
	"example.com/food-ordering/pkg/logger"
	"example.com/food-ordering/pkg/metrics"
	"example.com/food-ordering/pkg/outbox"
	"example.com/food-ordering/pkg/tracing"
	"example.com/food-ordering/services/restaurant/internal/repository"
	"example.com/food-ordering/services/restaurant/internal/saga"
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

	log := logger.With().Str("service", "restaurant-service").Logger()

	log.Info().
		Str("env", cfg.App.Env).
		Msg("Запуск Restaurant Service")

	// === Observability: Tracing ===

	shutdownTracing, err := tracing.InitTracer(tracing.Config{
		ServiceName:    "restaurant-service",
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

	// ReadinessChecker для /readyz — проверяет MySQL
	readinessCheck := healthcheck.Composite(
		func(ctx context.Context) error { return healthcheck.CheckMySQL(ctx, db) },
	)

	// === Observability: Metrics ===

	var metricsServer *metrics.Server
	var metricsWg sync.WaitGroup
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(
			cfg.Metrics.Addr(),
			"restaurant-service",
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

	restaurantRepo := repository.NewRestaurantRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)

	// Outbox для решений restaurant-approval-response
	responseOutbox := outbox.NewRepository(db, saga.TableResponseOutbox)

	sagaRepo := saga.NewRepository(db, approvalRepo, responseOutbox)
	engine := saga.NewEngine(restaurantRepo, sagaRepo)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Kafka: consumer + outbox sweeper ===

	var kafkaProducer *kafka.Producer
	var kafkaConsumer *kafka.Consumer
	var workersWg sync.WaitGroup

	if len(cfg.Kafka.Brokers) > 0 {
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Инициализация Kafka")

		kafkaProducer, err = kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
		if err != nil {
			log.Fatal().Err(err).Msg("Ошибка создания Kafka Producer")
		}

		// Circuit Breaker вокруг продюсера для outbox sweeper
		breaker := circuitbreaker.New("restaurant-outbox-producer")
		breakerProducer := circuitbreaker.WrapProducer(breaker, kafkaProducer)

		kafkaConsumer, err = kafka.NewConsumer(
			kafka.Config{Brokers: cfg.Kafka.Brokers},
			kafka.TopicRestaurantApprovalRequest,
			"restaurant-service-approval-request",
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Ошибка создания Kafka Consumer")
		}
		kafkaConsumer.SetDLQProducer(kafkaProducer)

		handler := saga.NewApprovalRequestHandler(engine)

		workersWg.Add(1)
		go func() {
			defer workersWg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("Паника в обработчике restaurant-approval-request")
				}
			}()
			log.Info().Str("topic", kafka.TopicRestaurantApprovalRequest).Msg("Запуск Kafka Consumer")
			if err := kafkaConsumer.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Ошибка Kafka Consumer")
			}
		}()

		// Sweeper отправляет решения из outbox в Kafka
		sweeper := outbox.NewSweeper(responseOutbox, breakerProducer, outbox.SweeperConfig{
			PollInterval:    cfg.Outbox.PollInterval,
			BatchSize:       cfg.Outbox.BatchSize,
			MaxRetries:      cfg.Outbox.MaxRetries,
			CleanupInterval: cfg.Outbox.CleanupInterval,
			Retention:       cfg.Outbox.Retention,
		}, saga.TableResponseOutbox)

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

		log.Info().Msg("Restaurant Service: consumer и outbox sweeper запущены")
	} else {
		log.Warn().Msg("Kafka не настроена — подтверждение заказов отключено")
	}

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Получен сигнал завершения, останавливаем сервер...")

	// Отменяем контекст — останавливаем Consumer и Sweeper
	cancel()
	workersWg.Wait()

	// Закрываем Kafka компоненты
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия Kafka Consumer")
		}
	}
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
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
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

	log.Info().Msg("Restaurant Service остановлен")
}
