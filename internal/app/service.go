// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/loftmatch/internal/adapters/loader"
	"github.com/okian/loftmatch/internal/adapters/mq/queue"
	"github.com/okian/loftmatch/internal/adapters/mq/worker"
	"github.com/okian/loftmatch/internal/adapters/repository"
	"github.com/okian/loftmatch/internal/domain/dataset"
	"github.com/okian/loftmatch/internal/domain/dedupe"
	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/pairing"
	"github.com/okian/loftmatch/internal/domain/scoring"
	"github.com/okian/loftmatch/internal/domain/traits"
	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/okian/loftmatch/pkg/logger"
	"github.com/okian/loftmatch/pkg/metrics"
	"github.com/okian/loftmatch/pkg/report"
)

// ScoreRequest is the scoring input shared with the HTTP layer.
type ScoreRequest = types.ScoreRequest

// MatchRequest is the ranking input shared with the HTTP layer.
type MatchRequest = types.MatchRequest

const stopTimeout = 5 * time.Second

// Service loads datasets into sessions and scores pairs from them.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *repository.MemoryStore
	scorer     *scoring.PairScorer
	selector   *pairing.Selector
	normalizer *traits.Normalizer
	metrics    *metrics.Manager
	jobs       *queue.InMemoryQueue
	pool       *worker.Pool

	// Configuration
	weights      scoring.Weights
	targetWeight float64
	maxSessions  int
	firstMatch   bool
	workerCount  int
	queueSize    int

	// State
	started   bool
	startedAt time.Time

	datasetsLoaded atomic.Int64
	pairsScored    atomic.Int64
	scoringErrors  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNormalizer sets the categorical trait tables used for scoring.
func WithNormalizer(n *traits.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithWeights sets the default coefficients used when a request has none.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithTargetWeight sets the default reference weight in grams.
func WithTargetWeight(grams float64) Option {
	return func(s *Service) {
		s.targetWeight = grams
	}
}

// WithMaxSessions bounds the number of datasets held in memory.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithFirstMatch makes pair selection accept duplicate IDs.
func WithFirstMatch(enabled bool) Option {
	return func(s *Service) {
		s.firstMatch = enabled
	}
}

// WithWorkerCount sets how many goroutines score match batches.
// Zero or less uses one per CPU.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		s.workerCount = n
	}
}

// WithQueueSize bounds the number of pair jobs waiting for a worker.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithMetrics sets the metrics manager. Defaults to the global one.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:      scoring.DefaultWeights(),
		targetWeight: scoring.DefaultTargetWeight,
		maxSessions:  repository.DefaultCapacity,
		metrics:      metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.weights.Validate(); err != nil {
		return fmt.Errorf("default weights: %w", err)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.normalizer == nil {
		s.normalizer = traits.NewNormalizer()
	}
	s.store = repository.NewMemoryStore(repository.WithCapacity(s.maxSessions))
	s.scorer = scoring.NewScorer(scoring.WithNormalizer(s.normalizer))
	var selOpts []pairing.Option
	if s.firstMatch {
		selOpts = append(selOpts, pairing.WithFirstMatch())
	}
	s.selector = pairing.NewSelector(selOpts...)

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize), queue.WithMetrics(s.metrics))
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.scorer,
		worker.WithLogger(s.logger), worker.WithMetrics(s.metrics))
	// Workers outlive the start request; Stop shuts them down.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "scoring service started",
		logger.Int("maxSessions", s.maxSessions),
		logger.Float64("targetWeight", s.targetWeight),
		logger.Bool("firstMatch", s.firstMatch),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.jobs.Capacity()),
	)
	return nil
}

// Stop drains the worker pool and releases all sessions.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.pool = nil
	s.jobs = nil
	s.store = nil
	s.started = false
	s.metrics.UpdateActiveSessions(0)
	s.logger.Info(context.Background(), "scoring service stopped")
}

func (s *Service) components() (*repository.MemoryStore, *scoring.PairScorer, *pairing.Selector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.store, s.scorer, s.selector, nil
}

// LoadDataset reads, validates and stores a dataset, returning its summary.
func (s *Service) LoadDataset(ctx context.Context, name string, r io.Reader, format loader.Format) (types.DatasetSummary, error) {
	if _, _, _, err := s.components(); err != nil {
		return types.DatasetSummary{}, err
	}
	table, err := loader.Load(ctx, r, format)
	if err != nil {
		s.reject(ctx, name, rejectReason(err), err)
		return types.DatasetSummary{}, err
	}
	return s.LoadTable(ctx, name, table)
}

// LoadTable validates and stores an already parsed table.
func (s *Service) LoadTable(ctx context.Context, name string, table dataset.Table) (types.DatasetSummary, error) {
	store, _, _, err := s.components()
	if err != nil {
		return types.DatasetSummary{}, err
	}

	ds, err := dataset.Validate(table)
	if err != nil {
		s.reject(ctx, name, rejectReason(err), err)
		return types.DatasetSummary{}, err
	}

	sess, err := store.Put(ctx, name, ds)
	if err != nil {
		return types.DatasetSummary{}, err
	}
	s.datasetsLoaded.Add(1)
	s.metrics.RecordDatasetLoaded(ds.Males, ds.Females, ds.Unknown)
	s.metrics.UpdateActiveSessions(store.Count(ctx))

	summary := summarize(sess)
	s.logger.Info(ctx, "dataset loaded",
		logger.String("session", sess.ID),
		logger.String("name", name),
		logger.Int("males", ds.Males),
		logger.Int("females", ds.Females),
		logger.Int("unknown", ds.Unknown),
	)
	if len(summary.DuplicateIDs) > 0 {
		s.logger.Warn(ctx, "dataset has duplicate ids",
			logger.String("session", sess.ID),
			logger.Any("ids", summary.DuplicateIDs),
		)
	}
	return summary, nil
}

func (s *Service) reject(ctx context.Context, name, reason string, err error) {
	s.metrics.RecordDatasetRejected(reason)
	s.logger.Warn(ctx, "dataset rejected",
		logger.String("name", name),
		logger.String("reason", reason),
		logger.Error(err),
	)
}

// Candidates lists the selectable males and females of a session.
func (s *Service) Candidates(ctx context.Context, sessionID string) (types.Candidates, error) {
	store, _, _, err := s.components()
	if err != nil {
		return types.Candidates{}, err
	}
	sess, err := store.Get(ctx, sessionID)
	if err != nil {
		return types.Candidates{}, err
	}
	return types.Candidates{
		SessionID: sess.ID,
		Males:     toCandidates(sess.Males),
		Females:   toCandidates(sess.Females),
	}, nil
}

// Score selects the requested pair and returns its full report.
func (s *Service) Score(ctx context.Context, req ScoreRequest) (report.Report, error) {
	store, scorer, selector, err := s.components()
	if err != nil {
		return report.Report{}, err
	}
	start := time.Now()

	rep, err := func() (report.Report, error) {
		sess, err := store.Get(ctx, req.SessionID)
		if err != nil {
			return report.Report{}, err
		}
		male, female, err := selector.SelectPair(sess.Males, sess.Females, req.MaleID, req.FemaleID)
		if err != nil {
			return report.Report{}, err
		}

		w, target := s.weights, s.targetWeight
		w = req.Weights.Apply(w)
		if req.TargetWeight != nil {
			target = *req.TargetWeight
		}

		result, err := scorer.Score(male, female, w, target)
		if err != nil {
			return report.Report{}, err
		}
		rep := report.New(male, female, result, scorer.Compare(male, female, result), w, target)
		rep.SessionID = sess.ID
		return rep, nil
	}()

	if err != nil {
		kind := ErrorKind(err)
		s.scoringErrors.Add(1)
		s.metrics.RecordScoringError(kind)
		s.logger.Warn(ctx, "scoring failed",
			logger.String("session", req.SessionID),
			logger.String("male", req.MaleID),
			logger.String("female", req.FemaleID),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return report.Report{}, err
	}

	latencyMs := float64(time.Since(start).Microseconds()) / 1000
	s.pairsScored.Add(1)
	s.metrics.RecordPairScored(rep.Compatibility, latencyMs)
	s.logger.Debug(ctx, "pair scored",
		logger.String("session", rep.SessionID),
		logger.String("male", rep.Male.ID),
		logger.String("female", rep.Female.ID),
		logger.Float64("compatibility", rep.Compatibility),
	)
	return rep, nil
}

// DeleteSession drops a loaded dataset.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	store, _, _, err := s.components()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.metrics.UpdateActiveSessions(store.Count(ctx))
	s.logger.Info(ctx, "session deleted", logger.String("session", sessionID))
	return nil
}

// Defaults returns the coefficients and target weight used when a request
// does not override them.
func (s *Service) Defaults() (scoring.Weights, float64) {
	return s.weights, s.targetWeight
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		MaxSessions:    s.maxSessions,
		DatasetsLoaded: s.datasetsLoaded.Load(),
		PairsScored:    s.pairsScored.Load(),
		ScoringErrors:  s.scoringErrors.Load(),
	}
	if s.started {
		ctx := context.Background()
		stats.Sessions = s.store.Count(ctx)
		stats.Evicted = s.store.Evicted()
		stats.Uptime = time.Since(s.startedAt).Round(time.Second).String()
		s.metrics.UpdateActiveSessions(stats.Sessions)
	}
	return stats
}

// ErrorKind classifies an error for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, dataset.ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, dataset.ErrInsufficientPopulation):
		return "insufficient_population"
	case errors.Is(err, scoring.ErrInvalidRecord):
		return "invalid_record"
	case errors.Is(err, scoring.ErrInvalidWeights):
		return "invalid_weights"
	case errors.Is(err, pairing.ErrAmbiguousOrMissingID):
		return "ambiguous_or_missing_id"
	case errors.Is(err, pairing.ErrInvalidSide):
		return "invalid_side"
	case errors.Is(err, repository.ErrNotFound):
		return "session_not_found"
	case errors.Is(err, queue.ErrFull):
		return "busy"
	case errors.Is(err, queue.ErrClosed):
		return "unavailable"
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, loader.ErrMalformed), errors.Is(err, loader.ErrEmptyFile):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

func rejectReason(err error) string {
	if kind := ErrorKind(err); kind != "internal" {
		return kind
	}
	return "unreadable"
}

func summarize(sess repository.Session) types.DatasetSummary {
	dups := append(duplicateIDs(sess.Males), duplicateIDs(sess.Females)...)
	sort.Strings(dups)
	return types.DatasetSummary{
		SessionID:    sess.ID,
		Name:         sess.Name,
		CreatedAt:    sess.CreatedAt,
		Individuals:  sess.Dataset.Len(),
		Males:        sess.Dataset.Males,
		Females:      sess.Dataset.Females,
		Unknown:      sess.Dataset.Unknown,
		DuplicateIDs: dups,
	}
}

// duplicateIDs returns the IDs shared by several individuals of one side.
func duplicateIDs(side []model.Individual) []string {
	ids := make([]string, 0, len(side))
	for _, ind := range side {
		ids = append(ids, ind.ID)
	}
	return dedupe.Duplicates(ids)
}

func toCandidates(side []model.Individual) []types.Candidate {
	out := make([]types.Candidate, 0, len(side))
	for _, ind := range side {
		out = append(out, toCandidate(ind))
	}
	return out
}

func toCandidate(ind model.Individual) types.Candidate {
	return types.Candidate{
		ID:        ind.ID,
		Name:      ind.Name,
		Label:     ind.Label(),
		Color:     ind.Color,
		ImagePath: ind.ImagePath,
	}
}
