package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "time/tzdata"

	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/minutemart/storefront-service/config"
	"github.com/minutemart/storefront-service/internal/controller"
	"github.com/minutemart/storefront-service/internal/infrastructure/database/postgres"
	"github.com/minutemart/storefront-service/internal/infrastructure/mail"
	"github.com/minutemart/storefront-service/internal/infrastructure/message-queue/kafka"
	paymentgateway "github.com/minutemart/storefront-service/internal/infrastructure/payment-gateway"
	"github.com/minutemart/storefront-service/internal/infrastructure/tracing"
	localmiddleware "github.com/minutemart/storefront-service/internal/middleware"
	"github.com/minutemart/storefront-service/internal/notification"
	"github.com/minutemart/storefront-service/internal/pricing"
	"github.com/minutemart/storefront-service/internal/repository"
	"github.com/minutemart/storefront-service/internal/service"
	"github.com/minutemart/storefront-service/internal/tenant"
	"github.com/minutemart/storefront-service/pkg/response"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = logger

	config := config.CreateNewConfig()

	if config.MigrationsPath != "" {
		err := postgres.RunMigrations(config.MigrationsPath, config.PostgreSQLConfig.DBUsername, config.PostgreSQLConfig.DBPassword, config.PostgreSQLConfig.DBHost, config.PostgreSQLConfig.DBPort, config.PostgreSQLConfig.DBName)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	db, err := postgres.GetDBInstance(config.PostgreSQLConfig.DBUsername, config.PostgreSQLConfig.DBPassword, config.PostgreSQLConfig.DBHost, config.PostgreSQLConfig.DBPort, config.PostgreSQLConfig.DBName)
	if err != nil {
		panic(err)
	}

	traceProvider, err := tracing.InitTracing(config.TracingConfig.CollectorHost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	defer func() {
		if err := traceProvider.Shutdown(context.Background()); err != nil {
			fmt.Println(err)
		}
	}()

	tracer := traceProvider.Tracer("storefront-service")

	e := echo.New()
	g := e.Group("/api/v1")

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// span creation and naming
			ctx, span := tracer.Start(c.Request().Context(), fmt.Sprintf("[%s] %s", c.Request().Method, c.Path()))
			defer span.End()

			// add the context to the request
			req := c.Request()
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	})

	// Used empty string so that metrics are not prefixed with the service name making it easier to aggregate across services
	e.Use(echoprometheus.NewMiddleware(""))
	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(fmt.Sprintf(":%s", config.MetricsPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
	}()

	e.Use(localmiddleware.Logger)

	g.GET("/ping", func(c echo.Context) error {
		return response.WriteSuccessResponse(c, "Hello, World!", nil)
	})

	kafkaProducer := kafka.CreateKafkaProducer(config)
	gateway := paymentgateway.CreateMidtransGateway(config)
	notifier := notification.CreateDispatcher(mail.CreateMailSender(config))

	rates, err := loadRates(config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load exchange rates")
	}

	orderRepo := repository.CreateOrderRepository(db)
	resolver := tenant.CreateResolver(orderRepo, config.BaseDomain)
	orderSvc := service.CreateOrderService(orderRepo, gateway, notifier, kafkaProducer, resolver, rates, config)
	controller.CreateOrderController(g, orderSvc)

	s, err := gocron.NewScheduler()
	if err != nil {
		panic(err)
	}

	// sweep hosted-card orders whose payment window has lapsed
	_, err = s.NewJob(
		gocron.DurationJob(
			time.Minute,
		),
		gocron.NewTask(
			orderSvc.CancelExpiredOrders,
		),
	)
	if err != nil {
		panic(err)
	}

	s.Start()

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%s", config.ServicePort)))
}

func loadRates(config *config.Config) (*pricing.RateTable, error) {
	if config.ExchangeRatesURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rates, err := pricing.FetchRates(ctx, config.ExchangeRatesURL)
		if err == nil {
			return rates, nil
		}
		log.Error().Err(err).Str("component", "loadRates").Msg("falling back to static exchange rates")
	}

	return pricing.ParseRates(config.ExchangeRates)
}
