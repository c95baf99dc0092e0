package loadtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/pairing"
	"github.com/okian/loftmatch/internal/sampledata"
	"github.com/okian/loftmatch/pkg/logger"
)

// pcgStream decorrelates the pair draw from the loft generator.
const pcgStream = 0x9e3779b97f4a7c15

type pair struct {
	male   model.Individual
	female model.Individual
}

func pairKey(maleID, femaleID string) string { return maleID + "\x00" + femaleID }

// Run executes a complete load test against cfg.BaseURL.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Stats, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	if log == nil {
		log = logger.Get()
	}
	log = log.Named("loadtest")
	start := time.Now()

	log.Info(ctx, "starting load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("individuals", cfg.Individuals),
		logger.Int("pairs", cfg.Pairs),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}

	inds, err := sampledata.Generate(cfg.Individuals, sampledata.WithSeed(cfg.Seed))
	if err != nil {
		return Stats{}, fmt.Errorf("loft generation failed: %w", err)
	}
	var buf bytes.Buffer
	if err := sampledata.WriteCSV(&buf, inds); err != nil {
		return Stats{}, fmt.Errorf("loft encoding failed: %w", err)
	}
	summary, err := c.upload(ctx, "loadtest-"+uuid.NewString()+".csv", buf.Bytes())
	if err != nil {
		return Stats{}, fmt.Errorf("dataset upload failed: %w", err)
	}
	stats := Stats{SessionID: summary.SessionID, Individuals: summary.Individuals}
	log.Info(ctx, "dataset uploaded",
		logger.String("session", summary.SessionID),
		logger.Int("males", summary.Males),
		logger.Int("females", summary.Females),
	)
	if !cfg.Keep {
		defer func() {
			if err := c.remove(context.WithoutCancel(ctx), summary.SessionID); err != nil {
				log.Warn(ctx, "failed to delete dataset", logger.String("session", summary.SessionID), logger.Error(err))
			}
		}()
	}

	males, females := pairing.PartitionByGender(inds)
	pairs := drawPairs(cfg, males, females)
	scores := submitPairs(ctx, c, cfg, summary.SessionID, pairs, &stats, log)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	verifyErr := verifyMatches(ctx, c, summary.SessionID, males[0], len(females), scores, &stats)

	stats.Duration = time.Since(start)
	if stats.Duration > 0 {
		stats.PairsPerSecond = float64(stats.PairsSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("pairsSubmitted", stats.PairsSubmitted),
		logger.Int("pairsScored", stats.PairsScored),
		logger.Int("pairsRejected", stats.PairsRejected),
		logger.Int("pairsFailed", stats.PairsFailed),
		logger.Int("matchesChecked", stats.MatchesChecked),
		logger.Int("mismatches", len(stats.Mismatches)),
		logger.Duration("duration", stats.Duration),
		logger.Float64("pairsPerSecond", stats.PairsPerSecond),
	)
	if verifyErr != nil {
		return stats, fmt.Errorf("result verification failed: %w", verifyErr)
	}
	return stats, nil
}

// drawPairs starts with the first male against every female so the ranking
// check has a full column to compare, then fills the rest at random.
func drawPairs(cfg Config, males, females []model.Individual) []pair {
	pairs := make([]pair, 0, cfg.Pairs)
	if len(males) == 0 || len(females) == 0 {
		return pairs
	}
	for _, f := range females {
		if len(pairs) == cfg.Pairs {
			return pairs
		}
		pairs = append(pairs, pair{male: males[0], female: f})
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, pcgStream))
	for len(pairs) < cfg.Pairs {
		pairs = append(pairs, pair{
			male:   males[rng.IntN(len(males))],
			female: females[rng.IntN(len(females))],
		})
	}
	return pairs
}

// submitPairs scores pairs concurrently and returns the compatibility of
// every pair the server accepted.
func submitPairs(ctx context.Context, c *client, cfg Config, sessionID string, pairs []pair, stats *Stats, log logger.Logger) map[string]float64 {
	var (
		submitted, scored, rejected, failed atomic.Int64

		mu     sync.Mutex
		scores = make(map[string]float64, len(pairs))
	)

	pairCh := make(chan pair, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range pairCh {
				submitted.Add(1)
				rep, err := c.score(ctx, sessionID, p.male.ID, p.female.ID)
				var se *statusError
				switch {
				case err == nil:
					scored.Add(1)
					mu.Lock()
					scores[pairKey(p.male.ID, p.female.ID)] = rep.Compatibility
					mu.Unlock()
				case errors.As(err, &se) && se.rejected():
					rejected.Add(1)
					log.Debug(ctx, "pair rejected", logger.String("code", se.Code))
				default:
					failed.Add(1)
					log.Debug(ctx, "pair failed", logger.Error(err))
				}
			}
		}()
	}

	go func() {
		defer close(pairCh)
		for _, p := range pairs {
			select {
			case <-ctx.Done():
				return
			case pairCh <- p:
			}
		}
	}()
	wg.Wait()

	stats.PairsSubmitted = int(submitted.Load())
	stats.PairsScored = int(scored.Load())
	stats.PairsRejected = int(rejected.Load())
	stats.PairsFailed = int(failed.Load())
	return scores
}
