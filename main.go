package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/application/notification"
	appOrder "github.com/Ansuman-Mahapatra/farmdirect/internal/application/order"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/config"
	dominv "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/inventory"
	domainOrder "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	domainPayment "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/payment"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/dynamostore"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/id"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/memory"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/notify"
	infraObs "github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/observability"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/observability/otelsdk"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/observability/oteltrace"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/observability/prometrics"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/observability/zaplogger"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/outbox"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/payment/razorpay"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/infrastructure/payment/sandbox"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/pkg/logging"
	httppresentation "github.com/Ansuman-Mahapatra/farmdirect/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// inventoryStore is what either backend provides for products.
type inventoryStore interface {
	dominv.Catalog
	dominv.Ledger
	Save(ctx context.Context, p *dominv.Product) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.System(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := otelsdk.Setup(ctx, otelsdk.Options{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
	})
	if err != nil {
		systemLogger.Fatal("otel_setup_failed", zap.Error(err))
	}

	counters, histograms := prometrics.Instruments(prometrics.New(prometheus.DefaultRegisterer, "", ""))
	tel := infraObs.New(
		infraObs.WithTracer(oteltrace.New("farmdirect/orders")),
		infraObs.WithLogger(zaplogger.New(baseLogger)),
		infraObs.WithInstruments(counters, histograms),
	)

	orders, inventory, err := buildStores(ctx, cfg)
	if err != nil {
		systemLogger.Fatal("store_setup_failed", zap.Error(err))
	}
	if err := seedInventory(ctx, inventory, cfg.SeedProducts); err != nil {
		systemLogger.Fatal("seed_failed", zap.Error(err))
	}

	gateway, err := buildGateway(cfg)
	if err != nil {
		systemLogger.Fatal("gateway_setup_failed", zap.Error(err))
	}

	mode, err := appOrder.ParseReservationMode(cfg.ReservationMode)
	if err != nil {
		systemLogger.Fatal("reservation_mode_invalid", zap.Error(err))
	}

	// In-memory event bus carries OrderConfirmed to the notification worker
	bus := outbox.NewBus(tel.Logger())
	bus.Start(ctx)

	notifiers := []notification.Notifier{notify.NewLogNotifier(tel.Logger())}
	var kafkaNotifier *notify.KafkaNotifier
	if brokers := notify.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kafkaNotifier = notify.NewKafkaNotifier(notify.NewKafkaWriter(brokers, cfg.KafkaNotifyTopic), cfg.KafkaNotifyTopic)
		notifiers = append(notifiers, kafkaNotifier)
	}
	notification.NewWorker(bus, tel, notifiers...).Start()

	workflow := appOrder.NewWorkflow(appOrder.Dependencies{
		Orders:    orders,
		Catalog:   inventory,
		Ledger:    inventory,
		Gateway:   gateway,
		IDs:       id.NewUUIDGenerator(),
		Publisher: bus,
		Telemetry: tel,
	}, appOrder.Options{
		Currency:        cfg.PaymentCurrency,
		GatewayTimeout:  cfg.PaymentTimeout,
		ReservationMode: mode,
	})

	if cfg.SignatureDebugEndpoints {
		systemLogger.Warn("signature_debug_endpoints_enabled")
	}
	handler := httppresentation.NewHandler(workflow, gateway, tel.Logger(), tel, httppresentation.Options{
		SignatureDebug: cfg.SignatureDebugEndpoints,
	})
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("store_backend", cfg.StoreBackend),
			zap.String("payment_gateway", cfg.PaymentGateway),
			zap.String("reservation_mode", string(mode)),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}

	// Drain pending notifications before closing their sinks
	bus.Stop(shutdownCtx)
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			systemLogger.Warn("kafka_close_error", zap.Error(err))
		}
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		systemLogger.Warn("otel_shutdown_error", zap.Error(err))
	}
}

func buildStores(ctx context.Context, cfg *config.Config) (domainOrder.Repository, inventoryStore, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		client, err := dynamostore.NewClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, nil, err
		}
		return dynamostore.NewOrderRepository(client, cfg.OrderTableName),
			dynamostore.NewInventoryLedger(client, cfg.ProductTableName),
			nil
	default:
		return memory.NewOrderRepository(), memory.NewInventoryRepository(), nil
	}
}

func seedInventory(ctx context.Context, store inventoryStore, seed string) error {
	products, err := memory.ParseSeed(seed)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := store.Save(ctx, p); err != nil {
			return fmt.Errorf("seed %s: %w", p.ID, err)
		}
	}
	return nil
}

func buildGateway(cfg *config.Config) (domainPayment.Gateway, error) {
	switch cfg.PaymentGateway {
	case config.GatewayRazorpay:
		client, err := razorpay.New(razorpay.Config{
			BaseURL:   cfg.PaymentBaseURL,
			KeyID:     cfg.PaymentKeyID,
			KeySecret: cfg.PaymentKeySecret,
			Timeout:   cfg.PaymentTimeout,
		}, nil)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return sandbox.New(cfg.SandboxSecret(), cfg.PaymentSandboxSuccessRate, 0), nil
	}
}
