package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"leafguard/server/cache"
	"leafguard/server/classifier"
	"leafguard/server/imaging"
	"leafguard/server/models"
	"leafguard/server/recommend"
)

// RealModel is the trained-classifier capability the pipeline may or may not
// hold. It is injected at construction; a nil model routes every request
// through the heuristic scorer.
type RealModel interface {
	Infer(batched []float32) (float64, error)
}

// Pipeline runs classification requests through normalization, one of the
// two scoring paths, decision, and response assembly. Requests are
// independent; the only shared pieces are the injected model handle and the
// read-only constant tables, so workers run without coordination.
type Pipeline struct {
	model  RealModel
	scorer *classifier.HeuristicScorer
	cache  cache.Cache
	logger *zap.Logger
	queue  *ProcessingQueue
	config *PipelineConfig

	statsMu sync.RWMutex
	stats   PipelineStats
}

type PipelineConfig struct {
	MaxQueueSize      int           `json:"max_queue_size"`
	MaxWorkers        int           `json:"max_workers"`
	ProcessingTimeout time.Duration `json:"processing_timeout"`
	CacheTTL          time.Duration `json:"cache_ttl"`
}

type PipelineStats struct {
	StartTime             time.Time `json:"start_time"`
	TotalProcessed        int64     `json:"total_processed"`
	SuccessfullyProcessed int64     `json:"successfully_processed"`
	FailedProcessed       int64     `json:"failed_processed"`
	CacheHits             int64     `json:"cache_hits"`
	AverageLatency        float64   `json:"average_latency_ms"`
	QueueSize             int       `json:"queue_size"`
	ActiveWorkers         int       `json:"active_workers"`
}

func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MaxQueueSize:      100,
		MaxWorkers:        4,
		ProcessingTimeout: 30 * time.Second,
		CacheTTL:          5 * time.Minute,
	}
}

// NewPipeline wires the pipeline. model may be nil; resultCache may be nil
// to disable caching.
func NewPipeline(model RealModel, scorer *classifier.HeuristicScorer, resultCache cache.Cache, cfg *PipelineConfig, logger *zap.Logger) *Pipeline {
	if cfg == nil {
		cfg = DefaultPipelineConfig()
	}

	p := &Pipeline{
		model:  model,
		scorer: scorer,
		cache:  resultCache,
		logger: logger,
		config: cfg,
		stats: PipelineStats{
			StartTime:     time.Now(),
			ActiveWorkers: cfg.MaxWorkers,
		},
	}

	p.queue = NewProcessingQueue(cfg.MaxQueueSize, cfg.MaxWorkers, p.process)

	return p
}

// IsRealModelLoaded reports whether the trained classifier is available.
// The health endpoint exposes this to clients.
func (p *Pipeline) IsRealModelLoaded() bool {
	return p.model != nil
}

// Predict enqueues a job and waits for its result or the processing timeout.
func (p *Pipeline) Predict(ctx context.Context, job *Job) (*models.PredictionResult, error) {
	startTime := time.Now()
	p.bumpTotal()

	cacheKey := cache.GenerateCacheKey("predict", string(job.ImageBytes), job.CropLabel)
	if p.cache != nil {
		var cached models.PredictionResult
		if err := p.cache.Get(ctx, cacheKey, &cached); err == nil {
			p.logger.Debug("Cache hit for prediction",
				zap.String("request_id", job.RequestID))
			p.bumpCacheHit()
			return &cached, nil
		}
	}

	resultChan := make(chan *ProcessingResult, 1)
	if !p.queue.Enqueue(&QueueItem{Job: job, ResultChan: resultChan, StartTime: startTime}) {
		p.bumpFailed()
		return nil, fmt.Errorf("processing queue full, try again later")
	}

	select {
	case result := <-resultChan:
		if result.Err != nil {
			p.bumpFailed()
			return nil, result.Err
		}

		p.recordSuccess(time.Since(startTime))

		if p.cache != nil {
			go func() {
				cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := p.cache.SetWithTTL(cctx, cacheKey, result.Result, p.config.CacheTTL); err != nil {
					p.logger.Warn("Failed to cache prediction", zap.Error(err))
				}
			}()
		}

		return result.Result, nil

	case <-time.After(p.config.ProcessingTimeout):
		p.bumpFailed()
		return nil, fmt.Errorf("processing timeout")

	case <-ctx.Done():
		p.bumpFailed()
		return nil, ctx.Err()
	}
}

// process is the worker body: normalize, score via whichever path is
// available, decide, assemble. A model inference failure is surfaced as-is
// rather than silently rerouted to the heuristic.
func (p *Pipeline) process(item *QueueItem) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Prediction panic", zap.Any("panic", r))
			item.ResultChan <- &ProcessingResult{Err: fmt.Errorf("prediction failed: %v", r)}
		}
	}()

	job := item.Job

	tensor, err := imaging.Normalize(job.ImageBytes)
	if err != nil {
		item.ResultChan <- &ProcessingResult{Err: err}
		return
	}

	var probability float64
	modelType := models.ModelTypeHeuristic

	if p.model != nil {
		probability, err = p.model.Infer(tensor.Batched())
		if err != nil {
			p.logger.Error("Model inference failed",
				zap.String("request_id", job.RequestID),
				zap.Error(err))
			item.ResultChan <- &ProcessingResult{Err: err}
			return
		}
		modelType = models.ModelTypeReal
	} else {
		features := imaging.ExtractFeatures(tensor)
		probability = p.scorer.Score(features, classifier.CropBias(job.CropLabel))
	}

	prediction := classifier.Decide(probability)

	p.logger.Debug("Prediction complete",
		zap.String("request_id", job.RequestID),
		zap.String("model_type", modelType),
		zap.Float64("probability", probability),
		zap.Bool("is_healthy", prediction.IsHealthy))

	item.ResultChan <- &ProcessingResult{
		Result: Assemble(prediction, modelType, job.CropLabel),
	}
}

// Assemble merges a decided prediction with its guidance and provenance into
// the response envelope. Pure composition, no computation.
func Assemble(prediction models.HealthPrediction, modelType, cropLabel string) *models.PredictionResult {
	label := models.LabelAffected
	if prediction.IsHealthy {
		label = models.LabelHealthy
	}

	return &models.PredictionResult{
		Prediction:      label,
		Confidence:      prediction.Confidence,
		IsHealthy:       prediction.IsHealthy,
		Recommendations: recommend.Generate(prediction.IsHealthy, cropLabel),
		ModelInfo: models.ModelInfo{
			RawPredictionValue: prediction.Probability,
			ModelThreshold:     classifier.Threshold,
			Interpretation:     classifier.Interpretation(prediction.Probability),
			ModelType:          modelType,
			CropType:           cropLabel,
		},
	}
}

func (p *Pipeline) GetStats() PipelineStats {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()

	stats := p.stats
	stats.QueueSize = p.queue.Size()
	return stats
}

// GetCacheStats reports the state of the result cache backend.
func (p *Pipeline) GetCacheStats(ctx context.Context) (*cache.CacheStats, error) {
	if p.cache == nil {
		return nil, fmt.Errorf("cache not configured")
	}
	return p.cache.GetStats(ctx)
}

// Shutdown drains the worker queue.
func (p *Pipeline) Shutdown() error {
	p.logger.Info("Shutting down prediction pipeline...")
	return p.queue.Shutdown(30 * time.Second)
}

func (p *Pipeline) bumpTotal() {
	p.statsMu.Lock()
	p.stats.TotalProcessed++
	p.statsMu.Unlock()
}

func (p *Pipeline) bumpFailed() {
	p.statsMu.Lock()
	p.stats.FailedProcessed++
	p.statsMu.Unlock()
}

func (p *Pipeline) bumpCacheHit() {
	p.statsMu.Lock()
	p.stats.CacheHits++
	p.stats.SuccessfullyProcessed++
	p.statsMu.Unlock()
}

func (p *Pipeline) recordSuccess(latency time.Duration) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	p.stats.SuccessfullyProcessed++

	current := float64(latency.Milliseconds())
	if p.stats.AverageLatency == 0 {
		p.stats.AverageLatency = current
	} else {
		alpha := 0.1
		p.stats.AverageLatency = alpha*current + (1-alpha)*p.stats.AverageLatency
	}
}
