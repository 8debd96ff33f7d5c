package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/grownex/grownex/internal/api/models"
	"github.com/grownex/grownex/internal/events"
	"github.com/grownex/grownex/internal/soil"
)

var tracer = otel.Tracer("github.com/grownex/grownex/internal/analysis")

// Caller identifies who is acting on analyses. Admins see every analysis;
// everyone else only their own.
type Caller struct {
	UserID string
	Admin  bool
}

func (c Caller) canAccess(a *Analysis) bool {
	return c.Admin || a.UserID == c.UserID
}

// ServiceConfig holds configuration for the analysis service.
type ServiceConfig struct {
	Repository Repository
	// Engine is the current scoring engine. Defaults to the built-in tables.
	Engine *soil.EngineRef
	// Publisher receives analysis events. Defaults to a no-op publisher.
	Publisher events.Publisher
	Metrics   *Metrics
	Logger    zerolog.Logger
}

// Service provides soil analysis operations.
type Service struct {
	repo      Repository
	engine    *soil.EngineRef
	publisher events.Publisher
	metrics   *Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new analysis service.
func NewService(cfg ServiceConfig) *Service {
	engine := cfg.Engine
	if engine == nil {
		engine = soil.NewEngineRef(nil)
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	return &Service{
		repo:      cfg.Repository,
		engine:    engine,
		publisher: publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Engine returns the engine currently in use.
func (s *Service) Engine() *soil.Engine {
	return s.engine.Load()
}

// Quick scores a measurement without storing it.
func (s *Service) Quick(ctx context.Context, req *models.SoilAnalysisRequest) (*models.SoilRecommendations, error) {
	m, fieldErrors := validateRequest(req)
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	a := &Analysis{Measurement: m}
	a.apply(s.engine.Load())
	s.metrics.recordAnalysis(ctx, "quick", string(m.SoilType), a.Score)

	result := toAPIRecommendations(a)
	return &result, nil
}

// Analyze scores a measurement, stores it and publishes an
// analysis.created event.
func (s *Service) Analyze(ctx context.Context, caller Caller, req *models.SoilAnalysisRequest) (*models.SoilAnalysis, error) {
	ctx, span := tracer.Start(ctx, "analysis.Analyze")
	defer span.End()

	m, fieldErrors := validateRequest(req)
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.now()
	a := &Analysis{
		ID:          "ana_" + uuid.New().String()[:22],
		UserID:      caller.UserID,
		Measurement: m,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	a.apply(s.engine.Load())
	span.SetAttributes(
		attribute.String("analysis.id", a.ID),
		attribute.Float64("analysis.soil_score", a.Score),
	)

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.metrics.recordAnalysis(ctx, "create", string(m.SoilType), a.Score)
	s.publish(ctx, events.JobAnalysisCreated, a)

	s.logger.Info().
		Str("analysis_id", a.ID).
		Str("soil_type", string(m.SoilType)).
		Float64("soil_score", a.Score).
		Msg("soil analysis created")

	result := toAPIAnalysis(a)
	return &result, nil
}

// Get retrieves an analysis visible to caller.
func (s *Service) Get(ctx context.Context, caller Caller, id string) (*models.SoilAnalysis, error) {
	a, err := s.getForCaller(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	result := toAPIAnalysis(a)
	return &result, nil
}

// List returns caller's analyses newest first. Admins see all analyses.
func (s *Service) List(ctx context.Context, caller Caller, limit int, cursor string) (*models.PagedSoilAnalyses, error) {
	limit = normalizeLimit(limit)

	opts := ListOptions{Limit: limit, Cursor: cursor}
	if !caller.Admin {
		opts.UserID = caller.UserID
	}

	result, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	items := make([]models.SoilAnalysis, 0, len(result.Items))
	for _, a := range result.Items {
		items = append(items, toAPIAnalysis(a))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedSoilAnalyses{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Update replaces the measurement of an analysis and recomputes its
// recommendations from scratch.
func (s *Service) Update(ctx context.Context, caller Caller, id string, req *models.SoilAnalysisRequest) (*models.SoilAnalysis, error) {
	a, err := s.getForCaller(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	m, fieldErrors := validateRequest(req)
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	a.Measurement = m
	a.apply(s.engine.Load())
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.metrics.recordAnalysis(ctx, "update", string(m.SoilType), a.Score)
	s.publish(ctx, events.JobAnalysisUpdated, a)

	result := toAPIAnalysis(a)
	return &result, nil
}

// Delete removes an analysis visible to caller.
func (s *Service) Delete(ctx context.Context, caller Caller, id string) error {
	if _, err := s.getForCaller(ctx, caller, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Rescore recomputes a stored analysis with the current engine and saves it
// if anything changed. It reports whether the analysis was updated. Only the
// derived fields are written, and an analysis edited after it was read is
// left alone.
func (s *Service) Rescore(ctx context.Context, id string) (bool, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}

	fresh := a.clone()
	fresh.apply(s.engine.Load())
	if sameResult(a, fresh) {
		return false, nil
	}

	fresh.UpdatedAt = s.now()
	if err := s.repo.UpdateResult(ctx, fresh, a.UpdatedAt); err != nil {
		if errors.Is(err, ErrAnalysisChanged) {
			s.logger.Debug().
				Str("analysis_id", id).
				Msg("analysis changed during rescore, skipping")
			return false, nil
		}
		return false, err
	}

	s.metrics.recordRescore(ctx)
	s.logger.Debug().
		Str("analysis_id", id).
		Float64("previous_score", a.Score).
		Float64("soil_score", fresh.Score).
		Msg("analysis rescored")

	return true, nil
}

// AnalysisIDs returns the IDs of every stored analysis.
func (s *Service) AnalysisIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListIDs(ctx)
}

// GetStored returns the stored analysis without access checks. It is meant
// for background jobs.
func (s *Service) GetStored(ctx context.Context, id string) (*Analysis, error) {
	return s.repo.Get(ctx, id)
}

// Ping checks the repository.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) getForCaller(ctx context.Context, caller Caller, id string) (*Analysis, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAnalysisNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	if !caller.canAccess(a) {
		return nil, ErrAnalysisNotFound
	}
	return a, nil
}

func (s *Service) publish(ctx context.Context, jobType string, a *Analysis) {
	err := s.publisher.Publish(ctx, events.Message{
		JobType:    jobType,
		AnalysisID: a.ID,
		UserID:     a.UserID,
		Location:   a.Measurement.Location,
		SoilType:   string(a.Measurement.SoilType),
		Score:      a.Score,
		OccurredAt: a.UpdatedAt,
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("analysis_id", a.ID).
			Str("job_type", jobType).
			Msg("failed to publish analysis event")
	}
}

func toAPIRecommendations(a *Analysis) models.SoilRecommendations {
	fertilizers := make([]models.Recommendation, 0, len(a.Fertilizers))
	for _, r := range a.Fertilizers {
		fertilizers = append(fertilizers, toAPIRecommendation(r))
	}
	pesticides := make([]models.Recommendation, 0, len(a.Pesticides))
	for _, r := range a.Pesticides {
		pesticides = append(pesticides, toAPIRecommendation(r))
	}
	crops := make([]models.CropRecommendation, 0, len(a.Crops))
	for _, c := range a.Crops {
		crops = append(crops, models.CropRecommendation{
			Name:        c.Name,
			Timing:      c.Timing,
			Yield:       c.Yield,
			Suitability: string(c.Suitability),
			Score:       c.Score,
			Priority:    string(c.Priority),
		})
	}

	return models.SoilRecommendations{
		SoilScore: a.Score,
		Breakdown: models.ScoreBreakdown{
			PH:            a.Breakdown.PH,
			Nitrogen:      a.Breakdown.Nitrogen,
			Phosphorus:    a.Breakdown.Phosphorus,
			Potassium:     a.Breakdown.Potassium,
			OrganicCarbon: a.Breakdown.OrganicCarbon,
			Zinc:          a.Breakdown.Zinc,
		},
		Fertilizers:      fertilizers,
		Pesticides:       pesticides,
		RecommendedCrops: crops,
	}
}

func toAPIRecommendation(r soil.Recommendation) models.Recommendation {
	return models.Recommendation{
		Name:        r.Name,
		Application: r.Application,
		Frequency:   r.Frequency,
		Purpose:     r.Purpose,
		Priority:    string(r.Priority),
	}
}

func toAPIAnalysis(a *Analysis) models.SoilAnalysis {
	m := a.Measurement
	return models.SoilAnalysis{
		ID:                  a.ID,
		UserID:              nullableString(a.UserID),
		LandArea:            m.LandArea,
		Location:            m.Location,
		SoilType:            string(m.SoilType),
		Irrigation:          string(m.Irrigation),
		PHLevel:             m.PH,
		Nitrogen:            m.Nitrogen,
		Phosphorus:          m.Phosphorus,
		Potassium:           m.Potassium,
		OrganicCarbon:       m.OrganicCarbon,
		Zinc:                m.Zinc,
		SoilRecommendations: toAPIRecommendations(a),
		CreatedAt:           models.Timestamp(a.CreatedAt),
		UpdatedAt:           models.Timestamp(a.UpdatedAt),
	}
}
