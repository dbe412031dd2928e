package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"soil-bot/config"
	telegram "soil-bot/internal/api"
	app "soil-bot/internal/application"
	"soil-bot/internal/container"
	"soil-bot/internal/domain/port"
	"soil-bot/internal/infrastructure/backend"
	"soil-bot/internal/infrastructure/storage"
	"soil-bot/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.InitLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// История анализов: SQLite, если задан путь, иначе в памяти
	var history port.AnalysisRepository
	if cfg.Store.Path != "" {
		repo, err := storage.NewSQLiteAnalysisRepository(cfg.Store.Path)
		if err != nil {
			logger.Fatal("open analysis store", zap.String("path", cfg.Store.Path), zap.Error(err))
		}
		defer repo.Close()

		if err := repo.Migrate(ctx); err != nil {
			logger.Fatal("migrate analysis store", zap.Error(err))
		}
		history = repo
	} else {
		history = storage.NewMemoryAnalysisRepository()
	}

	var camera port.Camera = vision.NopCamera{}
	if cfg.Camera.Device >= 0 {
		camera = vision.NewGoCVCamera(cfg.Camera.Device)
	}

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)

	// Собираем сервисы приложения
	appContainer := container.New(storage.NewMemoryOperatorRepository(), app.Collaborators{
		Predictor:  backend.NewPredictorClient(client),
		Scale:      backend.NewScaleClient(client),
		Classifier: backend.NewClassifierClient(client),
		Camera:     camera,
		History:    history,
	}, logger)

	// Создаём бота
	bot, err := telegram.NewBot(cfg.Telegram.Token, appContainer, logger)
	if err != nil {
		logger.Fatal("create bot", zap.Error(err))
	}

	logger.Info("bot is running",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Int("camera_device", cfg.Camera.Device),
		zap.String("store", cfg.Store.Path),
	)
	if err := bot.Run(ctx); err != nil {
		logger.Error("bot stopped", zap.Error(err))
	}
	logger.Info("bot stopped")
}
