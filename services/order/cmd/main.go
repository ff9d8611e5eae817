// Order Service — сервис заказов и координатор саги оформления заказа.
// Принимает заказы по HTTP, пишет запросы на оплату и подтверждение
// ресторана в outbox, слушает ответные топики Kafka и ведёт конечный
// автомат заказа вплоть до APPROVED или CANCELLED.
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
	"example.com/food-ordering/services/order/internal/handler"
	"example.com/food-ordering/services/order/internal/repository"
	"example.com/food-ordering/services/order/internal/saga"
	"example.com/food-ordering/services/order/internal/service"
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

	log := logger.With().Str("service", "order-service").Logger()

	log.Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.HTTP.Port).
		Msg("Запуск Order Service")

	// === Observability: Tracing ===

	shutdownTracing, err := tracing.InitTracer(tracing.Config{
		ServiceName:    "order-service",
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
			"order-service",
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

	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)

	// Два outbox: запросы на оплату и запросы подтверждения ресторана
	paymentOutbox := outbox.NewRepository(db, saga.TablePaymentOutbox)
	approvalOutbox := outbox.NewRepository(db, saga.TableApprovalOutbox)

	sagaRepo := saga.NewRepository(db, orderRepo, paymentOutbox, approvalOutbox)
	engine := saga.NewEngine(sagaRepo, orderRepo, paymentOutbox, approvalOutbox)

	orderService := service.NewOrderService(orderRepo, customerRepo, restaurantRepo, engine)

	// Контекст для graceful shutdown фоновых воркеров
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Kafka: consumers + outbox sweepers ===

	var kafkaProducer *kafka.Producer
	var consumers []*kafka.Consumer
	var workersWg sync.WaitGroup

	if len(cfg.Kafka.Brokers) > 0 {
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Инициализация Kafka")

		kafkaProducer, err = kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
		if err != nil {
			log.Fatal().Err(err).Msg("Ошибка создания Kafka Producer")
		}

		// Circuit Breaker вокруг продюсера: при недоступности Kafka
		// sweeper перестаёт долбить брокер, записи остаются в outbox
		breaker := circuitbreaker.New("order-outbox-producer")
		breakerProducer := circuitbreaker.WrapProducer(breaker, kafkaProducer)

		sweeperCfg := outbox.SweeperConfig{
			PollInterval:    cfg.Outbox.PollInterval,
			BatchSize:       cfg.Outbox.BatchSize,
			MaxRetries:      cfg.Outbox.MaxRetries,
			CleanupInterval: cfg.Outbox.CleanupInterval,
			Retention:       cfg.Outbox.Retention,
		}

		// Sweeper на каждую outbox таблицу
		for name, repo := range map[string]outbox.Repository{
			saga.TablePaymentOutbox:  paymentOutbox,
			saga.TableApprovalOutbox: approvalOutbox,
		} {
			sweeper := outbox.NewSweeper(repo, breakerProducer, sweeperCfg, name)
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
		}

		// Consumers ответных топиков саги и событий клиентов
		consumerSpecs := []struct {
			topic   string
			groupID string
			handler kafka.MessageHandler
		}{
			{kafka.TopicPaymentResponse, "order-service-payment-response", saga.NewPaymentResponseHandler(engine)},
			{kafka.TopicRestaurantApprovalResponse, "order-service-approval-response", saga.NewApprovalResponseHandler(engine)},
			{kafka.TopicCustomer, "order-service-customer", saga.NewCustomerEventHandler(customerRepo)},
		}

		for _, spec := range consumerSpecs {
			consumer, err := kafka.NewConsumer(kafka.Config{Brokers: cfg.Kafka.Brokers}, spec.topic, spec.groupID)
			if err != nil {
				log.Fatal().Err(err).Str("topic", spec.topic).Msg("Ошибка создания Kafka Consumer")
			}
			consumer.SetDLQProducer(kafkaProducer)
			consumers = append(consumers, consumer)

			workersWg.Add(1)
			go func(c *kafka.Consumer, topic string, h kafka.MessageHandler) {
				defer workersWg.Done()
				defer func() {
					if r := recover(); r != nil {
						log.Error().Interface("panic", r).Str("topic", topic).Msg("Паника в Kafka Consumer")
					}
				}()
				log.Info().Str("topic", topic).Msg("Запуск Kafka Consumer")
				if err := c.Consume(ctx, h); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Str("topic", topic).Msg("Ошибка Kafka Consumer")
				}
			}(consumer, spec.topic, spec.handler)
		}

		log.Info().Msg("Order Service: consumers и outbox sweepers запущены")
	} else {
		log.Warn().Msg("Kafka не настроена — сага и outbox sweepers отключены")
	}

	// Timeout Worker: отменяет заказы, зависшие в PENDING без ответа оплаты
	timeoutWorker := saga.NewTimeoutWorker(orderRepo, engine, saga.TimeoutWorkerConfig{
		PollInterval:   cfg.Saga.TimeoutPollInterval,
		PaymentTimeout: cfg.Saga.PaymentTimeout,
		BatchSize:      50,
	})
	workersWg.Add(1)
	go func() {
		defer workersWg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Паника в Saga Timeout Worker")
			}
		}()
		timeoutWorker.Run(ctx)
	}()

	// === HTTP сервер ===

	router := handler.NewRouter(handler.RouterConfig{
		OrderHandler:   handler.NewOrderHandler(orderService),
		ReadinessCheck: handler.ReadinessChecker(readinessCheck),
		Debug:          cfg.IsDevelopment(),
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

	// Останавливаем HTTP сервер — перестаём принимать новые заказы
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки HTTP сервера")
	}

	// Отменяем контекст — останавливаем consumers, sweepers и timeout worker
	cancel()
	workersWg.Wait()

	// Закрываем Kafka компоненты
	for _, consumer := range consumers {
		if err := consumer.Close(); err != nil {
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

	log.Info().Msg("Order Service остановлен")
}
