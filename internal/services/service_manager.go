package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/events"
	"github.com/brightclass/mastery-service/internal/repositories"
	"github.com/brightclass/mastery-service/internal/validator"
)

// ServiceManager wires and owns all service instances.
type ServiceManager interface {
	Submission() SubmissionService
	Score() ScoreService
	Mastery() MasteryService
	Sequence() SequenceService
	Export() ExportService
	Report() ReportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	DefaultTimeout time.Duration

	// EventPublisher is optional; services degrade to not publishing.
	EventPublisher events.EventPublisher

	// CompletionClient is optional; reports fall back to templates.
	CompletionClient TextCompletionClient
}

type serviceManager struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	submissionService SubmissionService
	scoreService      ScoreService
	masteryService    MasteryService
	sequenceService   SequenceService
	exportService     ExportService
	reportService     ReportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,
		DefaultTimeout:     30 * time.Second,
	}
	return NewServiceManager(db, repo, logger, v, config)
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.submissionService = NewSubmissionService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.EventPublisher)
	sm.logger.Info("Submission service initialized")

	sm.scoreService = NewScoreService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Score service initialized")

	sm.masteryService = NewMasteryService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.EventPublisher)
	sm.logger.Info("Mastery service initialized")

	sm.sequenceService = NewSequenceService(sm.repo, sm.db, sm.logger, sm.config.EventPublisher)
	sm.logger.Info("Sequence service initialized")

	sm.exportService = NewExportService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Export service initialized")

	sm.reportService = NewReportService(sm.repo, sm.db, sm.logger, sm.config.CompletionClient, sm.masteryService)
	sm.logger.Info("Report service initialized")

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.config.EventPublisher != nil {
		if err := sm.config.EventPublisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	return nil
}

// Service getters

func (sm *serviceManager) Submission() SubmissionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.submissionService
}

func (sm *serviceManager) Score() ScoreService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.scoreService
}

func (sm *serviceManager) Mastery() MasteryService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.masteryService
}

func (sm *serviceManager) Sequence() SequenceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.sequenceService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.exportService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.reportService
}
