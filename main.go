package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	v1 "garage/api/v1"
	"garage/database"
	"garage/internal/event"
	"garage/internal/garage/application"
	"garage/internal/garage/infrastructure"
	sharedinfra "garage/internal/shared/infrastructure"
)

func main() {
	// Charge .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Attention: fichier .env non trouvé, utilisation des valeurs par défaut")
	}

	logger := sharedinfra.NewLogger("garage-service")
	defer logger.Sync()

	// Connexion PostgreSQL
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "garageuser"),
		getEnv("DB_PASSWORD", "garagepass"),
		getEnv("DB_NAME", "garagedb"),
		getEnv("DB_SSLMODE", "disable"),
	)
	if err := database.Init(connStr); err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close()

	if err := database.CreateSchema(); err != nil {
		logger.Fatal("schema creation failed", zap.Error(err))
	}
	logger.Info("database ready")

	// Repositories
	garageRepo := infrastructure.NewGarageSQLRepository(database.DB)
	vehiculeRepo := infrastructure.NewVehiculeSQLRepository(database.DB)
	accessoireRepo := infrastructure.NewAccessoireSQLRepository(database.DB)

	// Cache applicatif
	cache := sharedinfra.NewInMemoryCache()
	defer cache.Close()

	// Pipeline d'événements Kafka
	broker := getEnv("KAFKA_BROKER", "localhost:9092")
	writer := event.NewVehiculeWriter(broker)
	defer writer.Close()
	publisher := event.NewKafkaDomainEventPublisher(writer, logger)

	reader := event.NewVehiculeReader(broker)
	defer reader.Close()
	processed := sharedinfra.NewInMemoryCache()
	defer processed.Close()
	eventHandler := event.NewVehiculeCreatedHandler(processed, logger)
	consumer := event.NewVehiculeCreatedConsumer(reader, eventHandler, logger)

	// Services applicatifs
	garageService := application.NewGarageService(garageRepo, vehiculeRepo, accessoireRepo, cache, logger)
	vehiculeService := application.NewVehiculeService(garageRepo, vehiculeRepo, publisher, cache, logger)
	accessoireService := application.NewAccessoireService(accessoireRepo, vehiculeRepo, logger)

	// API REST
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", healthHandler)
	handlers := v1.NewHandlers(garageService, vehiculeService, accessoireService, logger)
	handlers.Register(mux)

	server := &http.Server{
		Addr:         ":" + getEnv("HTTP_PORT", "8080"),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		logger.Info("event consumer started", zap.String("broker", broker))
		return consumer.Run(ctx)
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		// Le serveur draine d'abord: un enregistrement commité pendant
		// le drain doit encore pouvoir mettre son événement en file.
		err := server.Shutdown(shutdownCtx)
		publisher.Close()
		return err
	})

	if err := group.Wait(); err != nil {
		logger.Fatal("service stopped with error", zap.Error(err))
	}
	logger.Info("service stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
