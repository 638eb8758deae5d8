// Package service wires configuration, detectors, storage and the grouper
// into a single application service.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/tx-grouper/internal/detector"
	"github.com/tx-grouper/internal/grouper"
	"github.com/tx-grouper/internal/repository"
	"github.com/tx-grouper/internal/storage"
	"github.com/tx-grouper/pkg/config"
	apperrors "github.com/tx-grouper/pkg/errors"
	"github.com/tx-grouper/pkg/model"
	"github.com/tx-grouper/pkg/utils"
)

// Service is the main application service.
type Service struct {
	config   *config.Config
	logger   utils.Logger
	clock    utils.Clock
	registry *prometheus.Registry

	db        *gorm.DB
	contracts repository.ContractRepository
	detector  grouper.ResourceDetector
	cache     *detector.Cached
	backend   storage.Storage
	store     *storage.BatchStore
	grouper   grouper.Grouper
	strategy  grouper.Strategy

	initialized bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for elapsed-time reporting.
func WithClock(c utils.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithRegistry registers metrics with reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Service) {
		s.registry = reg
	}
}

// WithStorage replaces the configured storage backend.
func WithStorage(st storage.Storage) Option {
	return func(s *Service) {
		s.backend = st
	}
}

// WithDetector replaces the configured detector chain. The cache is still
// applied on top when detector.cache_size is positive.
func WithDetector(d grouper.ResourceDetector) Option {
	return func(s *Service) {
		s.detector = d
	}
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, apperrors.New(apperrors.CodeConfigError, "config is nil")
	}
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}

	s := &Service{
		config: cfg,
		logger: logger,
		clock:  utils.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize initializes all service components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Debug("Initializing service components...")

	strategy, err := grouper.ParseStrategy(s.config.Grouper.Strategy)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfigError, "invalid grouper strategy", err)
	}
	s.strategy = strategy

	if err := s.initDetector(ctx); err != nil {
		return fmt.Errorf("failed to initialize detector: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := s.initGrouper(); err != nil {
		return fmt.Errorf("failed to initialize grouper: %w", err)
	}

	s.initialized = true
	s.logger.Debug("Service components initialized successfully")
	return nil
}

// initDetector builds the detector chain: address or metadata, then the cache.
func (s *Service) initDetector(ctx context.Context) error {
	if s.detector == nil {
		address := detector.NewAddress(s.config.Detector.SystemAddress)

		switch s.config.Detector.Type {
		case "metadata":
			if err := s.initDatabase(ctx); err != nil {
				return err
			}
			s.detector = detector.NewMetadata(s.contracts, address)
		default:
			s.detector = address
		}
		s.logger.Info("Resource detector: %s", s.config.Detector.Type)
	}

	if size := s.config.Detector.CacheSize; size > 0 {
		cached, err := detector.NewCached(s.detector, size)
		if err != nil {
			return err
		}
		s.cache = cached
		s.detector = cached
	}
	return nil
}

// initDatabase opens the contract metadata database and migrates it.
func (s *Service) initDatabase(ctx context.Context) error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	db, err := repository.NewGormDB(&repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
		Path:     s.config.Database.Path,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to connect", err)
	}
	if err := repository.Migrate(db.WithContext(ctx)); err != nil {
		_ = repository.Close(db)
		return err
	}

	s.db = db
	s.contracts = repository.NewGormContractRepository(db)
	s.logger.Info("Database connection established")
	return nil
}

// initStorage initializes the batch store.
func (s *Service) initStorage() error {
	if s.backend == nil {
		backend, err := storage.NewStorage(&s.config.Storage)
		if err != nil {
			return err
		}
		s.backend = backend
		s.logger.Debug("Storage initialized (%s)", s.config.Storage.Type)
	}
	s.store = storage.NewBatchStore(s.backend)
	return nil
}

// initGrouper builds the facade with log and metrics observers.
func (s *Service) initGrouper() error {
	observers := grouper.Observers{grouper.NewLogObserver(s.logger)}

	if s.config.Metrics.Enabled || s.registry != nil {
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
		}
		metrics, err := grouper.NewMetricsObserver(s.config.Metrics.Namespace, s.registry)
		if err != nil {
			return err
		}
		observers = append(observers, metrics)
	}

	s.grouper = grouper.NewFacade(s.detector,
		grouper.WithObserver(observers),
		grouper.WithDetectWorkers(s.config.Grouper.DetectWorkers),
		grouper.WithDetectTimeout(s.config.Grouper.DetectTimeout),
	)
	return nil
}

// GroupOptions overrides configured grouping parameters for one run.
// Zero values fall back to the configuration.
type GroupOptions struct {
	ChainID   string
	Strategy  string
	CoreCount *int // nil uses grouper.core_count
	OutputKey string // when set, the plan is written to storage
}

// GroupBatch loads the batch at key, groups it and returns the plan.
func (s *Service) GroupBatch(ctx context.Context, key string, opts GroupOptions) (*model.Plan, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	batch, err := s.store.LoadBatch(ctx, key, opts.ChainID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Loaded batch %s (%d transactions) from %s", batch.ID, batch.Len(), s.backend.GetURL(key))

	plan, err := s.Group(ctx, batch, opts)
	if err != nil {
		return nil, err
	}

	if opts.OutputKey != "" {
		if err := s.store.SavePlan(ctx, opts.OutputKey, plan); err != nil {
			return nil, err
		}
		s.logger.Info("Plan written to %s", s.backend.GetURL(opts.OutputKey))
	}
	return plan, nil
}

// Group groups an in-memory batch and returns the plan.
func (s *Service) Group(ctx context.Context, batch *model.Batch, opts GroupOptions) (*model.Plan, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	strategy := s.strategy
	if opts.Strategy != "" {
		parsed, err := grouper.ParseStrategy(opts.Strategy)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidParameter, "invalid strategy", err)
		}
		strategy = parsed
	}
	coreCount := s.config.Grouper.CoreCount
	if opts.CoreCount != nil {
		coreCount = *opts.CoreCount
	}

	start := s.clock.Now()
	res, err := s.grouper.ProcessWithCoreCount(ctx, batch.ChainID, strategy, coreCount, batch.Transactions)
	if err != nil {
		return nil, err
	}
	// Only failures cut short by the caller's context fail the request.
	if ctx.Err() != nil && interrupted(res.Failures) {
		return nil, apperrors.Wrap(apperrors.CodeTimeout, "grouping interrupted", ctx.Err())
	}

	plan := model.NewPlan(batch, strategy.String(), coreCount, res.Groups, res.Failures, s.clock.Since(start))
	plan.CreatedAt = s.clock.Now()
	return plan, nil
}

// interrupted reports whether any failure was caused by cancellation or an
// expired deadline.
func interrupted(failures model.FailureMap) bool {
	for _, f := range failures {
		if errors.Is(f.Err, context.Canceled) || errors.Is(f.Err, context.DeadlineExceeded) {
			return true
		}
	}
	return false
}

func (s *Service) ready() error {
	if !s.initialized {
		return apperrors.New(apperrors.CodeConfigError, "service is not initialized")
	}
	return nil
}

// Contracts returns the contract repository, or nil unless the metadata
// detector is configured.
func (s *Service) Contracts() repository.ContractRepository {
	return s.contracts
}

// Store returns the batch store.
func (s *Service) Store() *storage.BatchStore {
	return s.store
}

// Registry returns the metrics registry, or nil when metrics are disabled.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// Stats returns service statistics.
func (s *Service) Stats() ServiceStats {
	stats := ServiceStats{
		Initialized: s.initialized,
		Detector:    s.config.Detector.Type,
		Strategy:    s.strategy.String(),
	}
	if s.cache != nil {
		cs := s.cache.Stats()
		stats.Cache = &cs
	}
	return stats
}

// HealthCheck performs a health check on the service.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *Service) Close() error {
	if s.db != nil {
		if err := repository.Close(s.db); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
			return err
		}
		s.db = nil
	}
	s.initialized = false
	return nil
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	Initialized bool                 `json:"initialized"`
	Detector    string               `json:"detector"`
	Strategy    string               `json:"strategy"`
	Cache       *detector.CacheStats `json:"cache,omitempty"`
}
