package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/okian/loftmatch/internal/adapters/mq/queue"
	"github.com/okian/loftmatch/internal/adapters/repository"
	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/pairing"
	"github.com/okian/loftmatch/internal/domain/scoring"
	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/okian/loftmatch/pkg/logger"
	"github.com/okian/loftmatch/pkg/report"
)

// Matches scores one individual against every partner of the opposite
// gender on the worker pool and returns them best first. Partners whose
// records cannot be scored are listed as skipped instead of failing the
// whole batch. Equal scores keep dataset order.
func (s *Service) Matches(ctx context.Context, req MatchRequest) (types.Matches, error) {
	store, _, selector, err := s.components()
	if err != nil {
		return types.Matches{}, err
	}
	jobs, err := s.jobQueue()
	if err != nil {
		return types.Matches{}, err
	}
	start := time.Now()

	res, err := s.rank(ctx, store, selector, jobs, req)
	if err != nil {
		kind := ErrorKind(err)
		s.scoringErrors.Add(1)
		s.metrics.RecordScoringError(kind)
		s.logger.Warn(ctx, "ranking failed",
			logger.String("session", req.SessionID),
			logger.String("id", req.ID),
			logger.String("side", req.Side),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return types.Matches{}, err
	}

	s.pairsScored.Add(int64(res.Scored))
	s.metrics.RecordMatchBatch(res.Scored + len(res.Skipped))
	s.logger.Debug(ctx, "partners ranked",
		logger.String("session", res.SessionID),
		logger.String("id", res.Subject.ID),
		logger.Int("scored", res.Scored),
		logger.Int("skipped", len(res.Skipped)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (s *Service) jobQueue() (queue.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.jobs == nil {
		return nil, ErrNotStarted
	}
	return s.jobs, nil
}

func (s *Service) rank(ctx context.Context, store *repository.MemoryStore, selector *pairing.Selector, jobs queue.Queue, req MatchRequest) (types.Matches, error) {
	sess, err := store.Get(ctx, req.SessionID)
	if err != nil {
		return types.Matches{}, err
	}
	gender, err := pairing.ParseSide(req.Side)
	if err != nil {
		return types.Matches{}, err
	}
	own, partners := sess.Males, sess.Females
	if gender == model.Female {
		own, partners = sess.Females, sess.Males
	}
	subject, err := selector.Select(own, gender, req.ID)
	if err != nil {
		return types.Matches{}, err
	}

	w, target := s.weights, s.targetWeight
	w = req.Weights.Apply(w)
	if req.TargetWeight != nil {
		target = *req.TargetWeight
	}
	// Parameter errors would fail every job the same way.
	if err := scoring.ValidateParams(w, target); err != nil {
		return types.Matches{}, err
	}

	outcomes, err := scoreAll(ctx, jobs, subject, gender, partners, w, target)
	if err != nil {
		return types.Matches{}, err
	}

	res := types.Matches{
		SessionID: sess.ID,
		Subject:   toCandidate(subject),
		Side:      string(gender),
		Matches:   make([]types.Match, 0, len(outcomes)),
	}
	for _, out := range outcomes {
		partner := out.Female
		if gender == model.Female {
			partner = out.Male
		}
		if out.Err != nil {
			s.scoringErrors.Add(1)
			s.metrics.RecordScoringError(ErrorKind(out.Err))
			res.Skipped = append(res.Skipped, partner.ID)
			continue
		}
		res.Matches = append(res.Matches, types.Match{
			Partner:       toCandidate(partner),
			Compatibility: out.Result.Compatibility,
			WeightedSum:   out.Result.WeightedSum,
			Band:          string(report.BandFor(out.Result.Compatibility)),
		})
	}
	sort.SliceStable(res.Matches, func(i, j int) bool {
		return res.Matches[i].Compatibility > res.Matches[j].Compatibility
	})
	res.Scored = len(res.Matches)
	if req.Limit > 0 && req.Limit < len(res.Matches) {
		res.Matches = res.Matches[:req.Limit]
	}
	return res, nil
}

// scoreAll submits one job per partner and collects every outcome in
// partner order. When the queue is full it waits for one of its own jobs to
// finish before retrying; a queue filled entirely by other callers is
// reported as queue.ErrFull.
func scoreAll(ctx context.Context, jobs queue.Queue, subject model.Individual, gender model.Gender,
	partners []model.Individual, w scoring.Weights, target float64,
) ([]queue.Outcome, error) {
	reply := make(chan queue.Outcome, len(partners))
	outcomes := make([]queue.Outcome, 0, len(partners))
	pending := 0

	collect := func() error {
		select {
		case out := <-reply:
			outcomes = append(outcomes, out)
			pending--
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for i, partner := range partners {
		job := queue.Job{
			Seq:          i,
			Male:         subject,
			Female:       partner,
			Weights:      w,
			TargetWeight: target,
			Reply:        reply,
		}
		if gender == model.Female {
			job.Male, job.Female = partner, subject
		}
		for {
			err := jobs.Enqueue(ctx, job)
			if err == nil {
				pending++
				break
			}
			if !errors.Is(err, queue.ErrFull) || pending == 0 {
				return nil, err
			}
			if err := collect(); err != nil {
				return nil, err
			}
		}
	}
	for pending > 0 {
		if err := collect(); err != nil {
			return nil, err
		}
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Seq < outcomes[j].Seq })
	return outcomes, nil
}
