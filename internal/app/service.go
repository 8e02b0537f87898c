// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/okian/octagon/internal/adapters/dataset"
	"github.com/okian/octagon/internal/adapters/model"
	jobqueue "github.com/okian/octagon/internal/adapters/mq/queue"
	workerpool "github.com/okian/octagon/internal/adapters/mq/worker"
	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/internal/domain/explain"
	"github.com/okian/octagon/internal/domain/features"
	"github.com/okian/octagon/internal/domain/predict"
	"github.com/okian/octagon/internal/domain/types"
	"github.com/okian/octagon/pkg/logger"
	"github.com/okian/octagon/pkg/metrics"
)

// Job kinds submitted to the worker pool.
const (
	jobPredict = "predict"
	jobExplain = "explain"
)

// Default limits for the listing endpoints.
const (
	defaultSearchLimit    = 10
	defaultOfficialsLimit = 20
)

// Classifiers bundles injected models. Attributor may be nil when the winner
// classifier cannot attribute; Explain then fails with ErrUpstream.
type Classifiers struct {
	Winner      predict.Classifier
	SideAMethod predict.Classifier
	SideBMethod predict.Classifier
	Attributor  explain.Attributor
}

// Service implements the prediction API on top of an immutable snapshot
// and a fixed worker pool.
type Service struct {
	mu sync.RWMutex

	// Core components, immutable after Start.
	engine     *predict.Engine
	attributor explain.Attributor
	models     *model.Store
	queue      *jobqueue.InMemoryQueue
	pool       *workerpool.Pool
	poolCancel context.CancelFunc

	// Inputs
	source      dataset.Source
	snapshot    *features.Snapshot
	classifiers *Classifiers
	winnerSpec  model.Spec
	sideASpec   model.Spec
	sideBSpec   model.Spec

	// Configuration
	workerCount    int
	queueSize      int
	requestTimeout time.Duration
	maxSearchLimit int

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of inference workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRequestTimeout bounds how long Predict and Explain wait for a worker.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithMaxSearchLimit caps listing limits.
func WithMaxSearchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSearchLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource reads the snapshot from src at Start.
func WithSource(src dataset.Source) Option {
	return func(s *Service) { s.source = src }
}

// WithSnapshot uses an already built snapshot instead of a source.
func WithSnapshot(snap features.Snapshot) Option {
	return func(s *Service) { s.snapshot = &snap }
}

// WithModelFiles loads the three classifiers from disk at Start.
func WithModelFiles(winner, sideA, sideB model.Spec) Option {
	return func(s *Service) {
		s.winnerSpec, s.sideASpec, s.sideBSpec = winner, sideA, sideB
	}
}

// WithClassifiers injects already loaded classifiers.
func WithClassifiers(c Classifiers) Option {
	return func(s *Service) { s.classifiers = &c }
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		requestTimeout: 5 * time.Second,
		maxSearchLimit: 100,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads reference data and models, validates every classifier schema
// and starts the worker pool. Any failure leaves the service stopped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting prediction service...")

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return err
	}
	c, err := s.loadClassifiers(ctx)
	if err != nil {
		return err
	}

	engine, err := predict.NewEngine(snap, c.Winner, c.SideAMethod, c.SideBMethod)
	if err != nil {
		s.logger.Error(ctx, "classifier schemas rejected", logger.Error(err))
		return err
	}
	s.engine = engine
	s.attributor = c.Attributor

	metrics.UpdateDataset(snap.Fighters.Len(), snap.Bouts.Len(), snap.Bouts.Officials())
	metrics.UpdateModelFeatures(model.WinnerModel, len(c.Winner.Schema().Names))
	metrics.UpdateModelFeatures(model.SideAMethodModel, len(c.SideAMethod.Schema().Names))
	metrics.UpdateModelFeatures(model.SideBMethodModel, len(c.SideBMethod.Schema().Names))

	s.queue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue)
	// Workers outlive ctx so requests still in flight when ctx ends can
	// finish; Stop drains them.
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.poolCancel = cancel
	s.pool.Start(poolCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "prediction service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("fighters", snap.Fighters.Len()),
		logger.Int("bouts", snap.Bouts.Len()),
	)

	return nil
}

func (s *Service) loadSnapshot(ctx context.Context) (features.Snapshot, error) {
	if s.snapshot != nil {
		return *s.snapshot, nil
	}
	snap, err := dataset.Load(ctx, s.source)
	if err != nil {
		s.logger.Error(ctx, "dataset load failed", logger.Error(err))
		return features.Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) loadClassifiers(ctx context.Context) (Classifiers, error) {
	if s.classifiers != nil {
		return *s.classifiers, nil
	}
	store, err := model.Open(ctx, s.winnerSpec, s.sideASpec, s.sideBSpec)
	if err != nil {
		s.logger.Error(ctx, "model load failed", logger.Error(err))
		return Classifiers{}, err
	}
	s.models = store
	return Classifiers{
		Winner:      store.Winner,
		SideAMethod: store.SideAMethod,
		SideBMethod: store.SideBMethod,
		Attributor:  store.Winner,
	}, nil
}

// Stop drains the worker pool. Reference data stays in memory.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping prediction service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if s.poolCancel != nil {
		s.poolCancel()
		s.poolCancel = nil
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped")
}

// running returns the engine and pool, or ErrBusy when not started.
func (s *Service) running(op string) (*predict.Engine, *workerpool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, errs.WrapKind(op, errs.ErrBusy, errNotStarted)
	}
	return s.engine, s.pool, nil
}

// Predict runs the combined prediction for req on the worker pool.
func (s *Service) Predict(ctx context.Context, req types.PredictRequest) (types.PredictionResponse, error) {
	const op = "service.predict"
	start := time.Now()

	fr, typ, err := req.Parse()
	if err != nil {
		metrics.RecordPrediction(jobPredict, outcome(err), time.Since(start))
		return types.PredictionResponse{}, err
	}

	engine, pool, err := s.running(op)
	if err != nil {
		return types.PredictionResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	p, err := workerpool.Do(ctx, pool, jobPredict, func(ctx context.Context) (predict.Prediction, error) {
		return engine.CombinedPredict(ctx, fr, typ)
	})
	err = s.classify(ctx, op, err)
	metrics.RecordPrediction(typ.String(), outcome(err), time.Since(start))
	if err != nil {
		return types.PredictionResponse{}, err
	}

	s.logger.Debug(ctx, "prediction served",
		logger.String("fighter_1", fr.SideA),
		logger.String("fighter_2", fr.SideB),
		logger.String("type", typ.String()),
		logger.String("winner", p.Odds.Winner),
		logger.Float64("p_fighter_1", p.Odds.PSideA),
	)
	return types.FromPrediction(p), nil
}

// Explain attributes the winner prediction for req to its features and
// aggregates the scores into ranked factors.
func (s *Service) Explain(ctx context.Context, req types.PredictRequest) (types.ExplainResponse, error) {
	const op = "service.explain"

	req.PredictionType = ""
	fr, _, err := req.Parse()
	if err != nil {
		metrics.RecordExplanation(outcome(err))
		return types.ExplainResponse{}, err
	}

	engine, pool, err := s.running(op)
	if err != nil {
		return types.ExplainResponse{}, err
	}
	attributor := s.attributor
	if attributor == nil {
		return types.ExplainResponse{}, errs.WrapKind(op, errs.ErrUpstream, errNoAttributor)
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	factors, err := workerpool.Do(ctx, pool, jobExplain, func(ctx context.Context) ([]explain.Factor, error) {
		names, x, err := engine.WinnerVector(ctx, fr)
		if err != nil {
			return nil, err
		}
		scores, err := attributor.Attribute(ctx, x)
		if err != nil {
			return nil, errs.WrapKind(op, errs.ErrUpstream, err)
		}
		return explain.Aggregate(names, x, scores)
	})
	err = s.classify(ctx, op, err)
	metrics.RecordExplanation(outcome(err))
	if err != nil {
		return types.ExplainResponse{}, err
	}
	return types.FromFactors(fr, factors), nil
}

// classify gives timeouts a kind and records schema mismatches.
func (s *Service) classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.Warn(ctx, "request abandoned before a worker finished", logger.Error(err))
		return errs.WrapKind(op, errs.ErrBusy, err)
	}
	var mismatch *errs.SchemaMismatchError
	if errors.As(err, &mismatch) {
		metrics.RecordSchemaMismatch(mismatch.Model)
		s.logger.Error(ctx, "schema mismatch", logger.String("model", mismatch.Model), logger.Any("missing", mismatch.Missing))
	}
	return err
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	if k := errs.KindOf(err); k != nil {
		return k.Error()
	}
	return metrics.OutcomeOther
}

// Fighter returns the reference record for name.
func (s *Service) Fighter(_ context.Context, name string) (types.FighterResponse, error) {
	engine, _, err := s.running("service.fighter")
	if err != nil {
		return types.FighterResponse{}, err
	}
	f, err := engine.Snapshot().Fighters.Lookup(name)
	if err != nil {
		return types.FighterResponse{}, err
	}
	return types.FromFighter(f), nil
}

// SearchFighters lists fighter names containing query.
func (s *Service) SearchFighters(_ context.Context, query string, limit int) (types.SearchResponse, error) {
	engine, _, err := s.running("service.search_fighters")
	if err != nil {
		return types.SearchResponse{}, err
	}
	limit, err = s.clamp("service.search_fighters", limit, defaultSearchLimit)
	if err != nil {
		return types.SearchResponse{}, err
	}
	return types.SearchResponse{Query: query, Fighters: engine.Snapshot().Fighters.Search(query, limit)}, nil
}

// TopOfficials lists the most frequent officials across the whole log.
func (s *Service) TopOfficials(_ context.Context, limit int) (types.OfficialsResponse, error) {
	engine, _, err := s.running("service.top_officials")
	if err != nil {
		return types.OfficialsResponse{}, err
	}
	limit, err = s.clamp("service.top_officials", limit, defaultOfficialsLimit)
	if err != nil {
		return types.OfficialsResponse{}, err
	}
	return types.FromOfficials(engine.Snapshot().Bouts.TopOfficials(limit)), nil
}

func (s *Service) clamp(op string, limit, fallback int) (int, error) {
	switch {
	case limit == 0:
		return min(fallback, s.maxSearchLimit), nil
	case limit < 0 || limit > s.maxSearchLimit:
		return 0, errs.WrapKind(op, errs.ErrInvalidInput, errLimit)
	}
	return limit, nil
}

// ModelStatus describes the loaded classifiers.
func (s *Service) ModelStatus(_ context.Context) ([]model.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, errs.WrapKind("service.model_status", errs.ErrBusy, errNotStarted)
	}
	if s.models != nil {
		return s.models.Status(), nil
	}
	c := s.classifiers
	return []model.Status{
		{Name: model.WinnerModel, Features: len(c.Winner.Schema().Names)},
		{Name: model.SideAMethodModel, Features: len(c.SideAMethod.Schema().Names)},
		{Name: model.SideBMethodModel, Features: len(c.SideBMethod.Schema().Names)},
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		snap := s.engine.Snapshot()
		queueLen := s.queue.Len(ctx)

		stats["queueLength"] = queueLen
		stats["workersBusy"] = s.pool.Busy()
		stats["fighters"] = snap.Fighters.Len()
		stats["bouts"] = snap.Bouts.Len()
		stats["officials"] = snap.Bouts.Officials()
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkersBusy(s.pool.Busy())
	}
	metrics.UpdateSystemMetrics()

	return stats
}
