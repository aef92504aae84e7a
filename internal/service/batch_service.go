package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"reel-quizzer/internal/config"
	"reel-quizzer/internal/domain"
	"reel-quizzer/internal/extract"
	"reel-quizzer/internal/util"
	"reel-quizzer/internal/validation"
)

// batchService implements the domain.BatchService interface. Artifacts are
// processed one at a time in discovery order; a failure on one artifact is
// logged and recorded, and the batch moves on.
type batchService struct {
	store     domain.ArtifactStore
	generator domain.QuizGenerator
	recorder  domain.OutcomeRecorder
	cfg       *config.Config
	prompt    string
	logger    *zap.Logger

	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	newRunID func() string
}

// NewBatchService creates a new instance of batchService.
func NewBatchService(
	store domain.ArtifactStore,
	generator domain.QuizGenerator,
	recorder domain.OutcomeRecorder,
	cfg *config.Config,
	prompt string,
	logger *zap.Logger,
) domain.BatchService {
	return &batchService{
		store:     store,
		generator: generator,
		recorder:  recorder,
		cfg:       cfg,
		prompt:    prompt,
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
		newRunID:  util.NewULID,
	}
}

// Run implements domain.BatchService. Enumeration failure and cancellation
// are the only errors returned; the report is returned in both cases.
func (s *batchService) Run(ctx context.Context) (*domain.BatchReport, error) {
	report := &domain.BatchReport{RunID: s.newRunID()}
	logger := s.logger.With(zap.String("run_id", report.RunID))

	artifacts, err := s.store.Discover(ctx)
	if err != nil {
		logger.Error("Failed to enumerate videos", zap.String("data_dir", s.cfg.Batch.DataDir), zap.Error(err))
		return report, err
	}
	if len(artifacts) == 0 {
		logger.Info("No videos found", zap.String("data_dir", s.cfg.Batch.DataDir), zap.String("ext", s.cfg.Batch.VideoExt))
		return report, nil
	}

	report.Total = len(artifacts)
	logger.Info("Found videos", zap.Int("count", len(artifacts)), zap.String("data_dir", s.cfg.Batch.DataDir))

	for i, artifact := range artifacts {
		if err := ctx.Err(); err != nil {
			logger.Warn("Batch interrupted", zap.Int("remaining", len(artifacts)-i), zap.Error(err))
			return report, err
		}

		exists, err := s.store.OutputExists(artifact)
		if err != nil {
			report.Failed++
			logger.Error("FAIL", zap.String("artifact", artifact.RelPath), zap.Error(err))
			continue
		}

		decision := domain.Decide(exists, s.cfg.Batch.OnlyMissing, s.cfg.Batch.Overwrite)
		switch decision {
		case domain.DecisionSkipExists:
			report.Skipped++
			logger.Info("SKIP (exists)", zap.String("artifact", artifact.RelPath), zap.String("decision", string(decision)))
			continue
		case domain.DecisionSkipNoOverwrite:
			report.Skipped++
			logger.Info("SKIP (use --overwrite to replace)", zap.String("artifact", artifact.RelPath), zap.String("decision", string(decision)))
			continue
		}

		if sizeMB := artifact.SizeMB(); s.cfg.Batch.SizeWarnMB > 0 && sizeMB > s.cfg.Batch.SizeWarnMB {
			logger.Warn("Large video; downloads from the remote server may be slow",
				zap.String("artifact", artifact.RelPath),
				zap.Float64("size_mb", sizeMB),
				zap.Float64("threshold_mb", s.cfg.Batch.SizeWarnMB))
		}

		logger.Info("RUN", zap.String("artifact", artifact.RelPath), zap.String("decision", string(decision)))

		outcome := s.process(ctx, logger, artifact)
		outcome.RunID = report.RunID
		report.Ran++
		if outcome.Status == domain.OutcomeSucceeded {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, outcome)

		if err := s.recorder.Record(ctx, outcome); err != nil {
			logger.Warn("Failed to record outcome", zap.String("artifact", artifact.RelPath), zap.Error(err))
		}

		if s.cfg.Batch.Sleep > 0 {
			if err := s.sleep(ctx, s.cfg.Batch.Sleep); err != nil && i < len(artifacts)-1 {
				logger.Warn("Batch interrupted", zap.Int("remaining", len(artifacts)-i-1), zap.Error(err))
				return report, err
			}
		}
	}

	logger.Info("Batch complete",
		zap.Int("total", report.Total),
		zap.Int("ran", report.Ran),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// process runs one artifact through generate, persist raw, extract, validate
// and persist document. Stage on the outcome is the last stage attempted.
func (s *batchService) process(ctx context.Context, logger *zap.Logger, artifact domain.InputArtifact) domain.ArtifactOutcome {
	outcome := domain.ArtifactOutcome{
		Artifact:  artifact.RelPath,
		Decision:  domain.DecisionRun,
		StartedAt: s.now(),
	}

	fail := func(stage domain.Stage, err error) domain.ArtifactOutcome {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			domainErr.WithContext("artifact", artifact.RelPath).WithContext("stage", string(stage))
		}
		outcome.Status = domain.OutcomeFailed
		outcome.Stage = stage
		outcome.Error = err.Error()
		outcome.FinishedAt = s.now()

		logger.Error("FAIL",
			zap.String("artifact", artifact.RelPath),
			zap.String("stage", string(stage)),
			zap.Error(err))
		if outcome.RawSaved {
			logger.Error("Raw output saved", zap.String("artifact", artifact.RelPath), zap.String("raw", artifact.RawPath()))
		}
		return outcome
	}

	req := domain.GenerationRequest{
		Prompt:    s.prompt,
		MediaURL:  artifact.MediaURL(s.cfg.Batch.BaseURL),
		MediaPath: artifact.Path,
		Params: domain.GenerationParams{
			Model:           s.cfg.Generator.Model,
			TopP:            s.cfg.Generator.TopP,
			Temperature:     s.cfg.Generator.Temperature,
			DynamicThinking: s.cfg.Generator.DynamicThinking,
			MaxOutputTokens: s.cfg.Generator.MaxOutputTokens,
		},
	}

	raw, err := s.generator.Generate(ctx, req)
	if err != nil {
		return fail(domain.StageTransport, err)
	}

	if err := s.store.WriteRaw(artifact, raw); err != nil {
		return fail(domain.StagePersistRaw, err)
	}
	outcome.RawSaved = true

	candidate, err := extract.Recover(raw)
	if err != nil {
		return fail(domain.StageExtract, err)
	}

	if err := validation.ValidateDocument(candidate.Value); err != nil {
		return fail(domain.StageValidate, err)
	}
	if s.cfg.Batch.StrictValidation {
		if err := validation.Strict(candidate.Raw); err != nil {
			return fail(domain.StageValidate, err)
		}
	}

	if err := s.store.WriteDocument(artifact, candidate.Raw); err != nil {
		return fail(domain.StagePersistDocument, err)
	}

	outcome.Status = domain.OutcomeSucceeded
	outcome.Stage = domain.StagePersistDocument
	outcome.FinishedAt = s.now()
	logger.Info("OK", zap.String("artifact", artifact.RelPath), zap.String("output", documentRelPath(artifact)))
	return outcome
}

func documentRelPath(a domain.InputArtifact) string {
	return a.ID() + domain.DocumentSuffix
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
