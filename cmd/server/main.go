package main

import (
	"context"
	"fmt"
	"log"

	"receiptdesk/internal/config"
	"receiptdesk/internal/extract/azure"
	"receiptdesk/internal/handler"
	"receiptdesk/internal/repository/postgres"
	"receiptdesk/internal/router"
	"receiptdesk/internal/service"
	s3storage "receiptdesk/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(context.Background(), &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	receiptRepo := postgres.NewReceiptRepo(db)

	stage, err := s3storage.NewObjectStage(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize object stage: %w", err)
	}

	extractor := azure.NewExtractor(&cfg.Extractor)

	receiptSvc := service.NewReceiptService(receiptRepo, stage, &cfg.S3)
	processor := service.NewProcessor(receiptRepo, extractor, stage)

	receiptH := handler.NewReceiptHandler(receiptSvc)
	triggerH := handler.NewTriggerHandler(processor, stage, cfg.S3.QuarantinePrefix)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(receiptH, triggerH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
