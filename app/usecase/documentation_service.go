package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docify/internal/domain/entity"
	"docify/internal/domain/repository"
	"docify/internal/infrastructure/metrics"
	"docify/internal/infrastructure/validator"
)

// ProgressFunc observes pipeline stage transitions. May be nil.
type ProgressFunc func(from, to entity.Stage)

type DocumentationUsecase interface {
	Generate(ctx context.Context, req entity.GenerationRequest) *entity.GenerationResult
	GenerateWithProgress(ctx context.Context, req entity.GenerationRequest, progress ProgressFunc) *entity.GenerationResult
	GetResult(ctx context.Context, id string) (*entity.GenerationResult, error)
	ListResults(ctx context.Context, limit int) ([]*entity.GenerationResult, error)
	RetryWrite(ctx context.Context, id string) (*entity.GenerationResult, error)
	Ready() (generatorReady, writerReady bool)
}

var _ DocumentationUsecase = (*DocumentationService)(nil)

// DocumentationService runs the linear pipeline for one request:
// Received -> Generating -> Writing -> Done | Failed. Transitions are strictly
// forward; a write failure after successful generation fails the request but
// salvages the generated document for a later retry of the write stage.
type DocumentationService struct {
	generator repository.ContentGenerator
	writer    repository.DocumentWriter
	schema    *validator.SchemaValidator
	salvage   repository.SalvageRepository
	docID     string
	logger    *slog.Logger
}

func NewDocumentationService(
	generator repository.ContentGenerator,
	writer repository.DocumentWriter,
	salvage repository.SalvageRepository,
	docID string,
	logger *slog.Logger,
) *DocumentationService {
	return &DocumentationService{
		generator: generator,
		writer:    writer,
		schema:    validator.NewSchemaValidator(),
		salvage:   salvage,
		docID:     docID,
		logger:    logger,
	}
}

func (s *DocumentationService) Generate(ctx context.Context, req entity.GenerationRequest) *entity.GenerationResult {
	return s.GenerateWithProgress(ctx, req, nil)
}

func (s *DocumentationService) GenerateWithProgress(ctx context.Context, req entity.GenerationRequest, progress ProgressFunc) *entity.GenerationResult {
	start := time.Now()
	stage := entity.StageReceived
	advance := func(next entity.Stage) {
		metrics.IncStageTransition(string(stage), string(next))
		if progress != nil {
			progress(stage, next)
		}
		stage = next
	}

	metrics.IncGenerationRequest()
	defer func() {
		metrics.ObservePipelineDuration(time.Since(start))
	}()

	req = req.Normalize()
	if err := req.Validate(); err != nil {
		advance(entity.StageFailed)
		return entity.NewFailureResult(err, time.Since(start))
	}

	advance(entity.StageGenerating)
	s.logger.Info("generating documentation", "topic", req.Topic, "priority", req.Priority)

	doc, err := s.generateDocument(ctx, req)
	if err != nil {
		advance(entity.StageFailed)
		s.logger.Error("generation failed", "topic", req.Topic, "err", err)
		result := entity.NewFailureResult(err, time.Since(start))
		s.record(ctx, result)
		return result
	}
	genMetrics := entity.EstimateMetrics(req, doc, time.Since(start))

	advance(entity.StageWriting)
	s.logger.Info("writing entry", "doc_id", s.docID, "title", doc.Title)

	if err := s.writer.WriteEntry(ctx, s.docID, doc, genMetrics, time.Now().UTC()); err != nil {
		advance(entity.StageFailed)
		s.logger.Error("document write failed", "doc_id", s.docID, "err", err)
		result := entity.NewSalvageResult(doc, err, genMetrics, time.Since(start))
		s.record(ctx, result)
		return result
	}

	advance(entity.StageDone)
	result := entity.NewSuccessResult(doc, s.writer.DocURL(s.docID), genMetrics, time.Since(start))
	s.record(ctx, result)
	s.logger.Info("documentation complete", "result_id", result.ID, "duration", result.Duration)
	return result
}

// generateDocument runs prompt construction, model invocation, and schema
// validation. Invalid model output is not an error here: the fallback
// document keeps the pipeline available.
func (s *DocumentationService) generateDocument(ctx context.Context, req entity.GenerationRequest) (*entity.StructuredDocument, error) {
	prompt := entity.BuildPrompt(req)

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	res := s.schema.Validate(raw)
	if !res.Valid {
		metrics.IncFallbackConstruction()
		s.logger.Warn("model output failed validation, using fallback", "topic", req.Topic, "reasons", res.Reasons)
		return validator.BuildFallbackDocument(req), nil
	}

	doc := res.Document
	doc.Priority = req.Priority
	if len(doc.Tags) == 0 {
		doc.Tags = entity.SynthesizeTags(req)
	}
	return doc, nil
}

func (s *DocumentationService) GetResult(ctx context.Context, id string) (*entity.GenerationResult, error) {
	return s.salvage.GetByID(ctx, id)
}

func (s *DocumentationService) ListResults(ctx context.Context, limit int) ([]*entity.GenerationResult, error) {
	return s.salvage.List(ctx, limit)
}

// RetryWrite re-runs only the document-write stage for a salvaged result. The
// insertion offset is read afresh inside the writer, never reused.
func (s *DocumentationService) RetryWrite(ctx context.Context, id string) (*entity.GenerationResult, error) {
	result, err := s.salvage.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.Document == nil {
		return nil, fmt.Errorf("result %s has no salvaged document", id)
	}
	if result.Written {
		return result, nil
	}

	if err := s.writer.WriteEntry(ctx, s.docID, result.Document, result.Metrics, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("retry write: %w", err)
	}

	result.Success = true
	result.Written = true
	result.Error = ""
	result.ErrorKind = ""
	result.DocURL = s.writer.DocURL(s.docID)
	if err := s.salvage.Update(ctx, result); err != nil {
		s.logger.Warn("failed to update salvaged result after retry", "result_id", id, "err", err)
	}
	return result, nil
}

func (s *DocumentationService) Ready() (bool, bool) {
	return s.generator.Ready(), s.writer.Ready()
}

func (s *DocumentationService) record(ctx context.Context, result *entity.GenerationResult) {
	if err := s.salvage.Save(ctx, result); err != nil {
		s.logger.Warn("failed to record result", "result_id", result.ID, "err", err)
	}
}
