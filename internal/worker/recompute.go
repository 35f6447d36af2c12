package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/middleware"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/schedule"
)

// RecomputeJob re-propagates stop times through stored itineraries and
// persists the computed fields.
type RecomputeJob struct {
	config  RecomputeConfig
	logger  zerolog.Logger
	service *itinerary.Service
	engine  *schedule.Engine
	metrics *middleware.RecomputeMetrics
}

// RecomputeJobConfig holds configuration for creating a RecomputeJob.
type RecomputeJobConfig struct {
	Config  RecomputeConfig
	Logger  zerolog.Logger
	Service *itinerary.Service
	Engine  *schedule.Engine

	// Metrics is optional.
	Metrics *middleware.RecomputeMetrics
}

// NewRecomputeJob creates a new recompute job processor.
func NewRecomputeJob(cfg RecomputeJobConfig) *RecomputeJob {
	engine := cfg.Engine
	if engine == nil {
		engine = schedule.NewEngine(schedule.EngineConfig{Logger: cfg.Logger})
	}

	return &RecomputeJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		service: cfg.Service,
		engine:  engine,
		metrics: cfg.Metrics,
	}
}

// RecomputeResult contains the result of a recompute run.
type RecomputeResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Errors     []RecomputeError
}

// RecomputeError represents a failure for one itinerary.
type RecomputeError struct {
	ItineraryID string
	Error       string
}

// RecomputeOne recomputes a single itinerary by ID.
func (j *RecomputeJob) RecomputeOne(ctx context.Context, id string) error {
	start := time.Now()
	err := j.recompute(ctx, id)
	if j.metrics != nil {
		j.metrics.RecordJob("itinerary_recompute", time.Since(start), err)
	}
	return err
}

// RecomputeAll recomputes every stored itinerary with a worker pool.
func (j *RecomputeJob) RecomputeAll(ctx context.Context) (*RecomputeResult, error) {
	ids, err := j.service.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list itinerary ids: %w", err)
	}
	return j.Run(ctx, ids), nil
}

// Run recomputes the given itineraries concurrently.
func (j *RecomputeJob) Run(ctx context.Context, ids []string) *RecomputeResult {
	startTime := time.Now()
	result := &RecomputeResult{
		StartTime: startTime,
		Total:     len(ids),
	}

	j.logger.Info().
		Int("total", len(ids)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting recompute run")

	idsChan := make(chan string, len(ids))
	errsChan := make(chan RecomputeError, len(ids))

	var wg sync.WaitGroup
	var successful atomic.Int64

	for range j.config.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idsChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if err := j.RecomputeOne(ctx, id); err != nil {
					errsChan <- RecomputeError{ItineraryID: id, Error: err.Error()}
					continue
				}
				successful.Add(1)
			}
		}()
	}

	for _, id := range ids {
		idsChan <- id
	}
	close(idsChan)

	wg.Wait()
	close(errsChan)

	for e := range errsChan {
		result.Errors = append(result.Errors, e)
	}
	result.Successful = int(successful.Load())
	result.Failed = len(result.Errors)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("recompute run completed")

	return result
}

func (j *RecomputeJob) recompute(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	rec, err := j.service.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load itinerary %s: %w", id, err)
	}

	doc := rec.Document
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("itinerary %s: %w", id, err)
	}

	anchor := schedule.Anchor{
		Date: doc.DefaultAnchorDate(),
		Time: doc.DefaultAnchorTime(),
	}
	j.engine.Propagate(doc, anchor)

	if _, err := j.service.Update(ctx, rec.ID, rec.Title, doc); err != nil {
		return fmt.Errorf("persist itinerary %s: %w", id, err)
	}

	j.logger.Debug().Str("itinerary_id", id).Msg("itinerary recomputed")
	return nil
}
