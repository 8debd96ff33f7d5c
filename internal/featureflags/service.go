package featureflags

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long flags are served from memory.
const DefaultCacheTTL = time.Minute

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository   Repository
	Logger       zerolog.Logger
	CacheTTL     time.Duration // How long to cache flags in memory
	DefaultFlags map[string]*Flag
}

// Service provides feature flag evaluation with caching and fallback.
type Service struct {
	repo         Repository
	logger       zerolog.Logger
	cacheTTL     time.Duration
	defaultFlags map[string]*Flag
	now          func() time.Time

	mu          sync.RWMutex
	cache       map[string]*Flag
	cacheExpiry time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}

	defaultFlags := cfg.DefaultFlags
	if defaultFlags == nil {
		defaultFlags = DefaultFlags()
	}

	return &Service{
		repo:         cfg.Repository,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
		defaultFlags: defaultFlags,
		now:          time.Now,
		cache:        make(map[string]*Flag),
	}
}

// GetFlag retrieves a feature flag by key.
// Uses the cached value while it is fresh and falls back to defaults when
// the repository has no value or fails.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag := s.getCached(key); flag != nil {
		return flag
	}

	flag, err := s.repo.GetFlag(ctx, key)
	if err == nil {
		s.setCached(flag)
		return flag
	}

	if !errors.Is(err, ErrFlagNotFound) {
		s.logger.Warn().Err(err).Str("flag", key).Msg("failed to get feature flag from repository")
	}

	return s.defaultFlags[key]
}

// List returns every flag, stored values merged over defaults, sorted by key.
func (s *Service) List(ctx context.Context) FlagList {
	merged := make(map[string]*Flag, len(s.defaultFlags))
	for k, v := range s.defaultFlags {
		merged[k] = v
	}

	flags, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to get feature flags from repository, using defaults")
	} else {
		for k, v := range flags {
			merged[k] = v
		}

		s.mu.Lock()
		s.cache = flags
		s.cacheExpiry = s.now().Add(s.cacheTTL)
		s.mu.Unlock()
	}

	list := FlagList{Items: make([]Flag, 0, len(merged))}
	for _, flag := range merged {
		list.Items = append(list.Items, *flag)
	}
	sort.Slice(list.Items, func(i, j int) bool {
		return list.Items[i].Key < list.Items[j].Key
	})
	return list
}

// Update validates and applies a batch of flag updates.
func (s *Service) Update(ctx context.Context, req *FlagUpdateRequest) ([]*Flag, error) {
	now := s.now().UTC()
	flags := make([]*Flag, 0, len(req.Updates))
	for _, u := range req.Updates {
		if err := ValidateUpdate(u); err != nil {
			return nil, err
		}
		flags = append(flags, &Flag{Key: u.Key, Value: u.Value, UpdatedAt: now})
	}

	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, flag := range flags {
		s.cache[flag.Key] = flag
	}
	s.mu.Unlock()

	for _, flag := range flags {
		s.logger.Info().
			Str("flag", flag.Key).
			Interface("value", flag.Value).
			Str("reason", req.Reason).
			Msg("feature flag updated")
	}

	return flags, nil
}

// Reset removes the stored value for key so reads return the default again.
func (s *Service) Reset(ctx context.Context, key string) error {
	if _, ok := knownFlags[key]; !ok {
		return ErrUnknownFlag
	}
	if err := s.repo.DeleteFlag(ctx, key); err != nil && !errors.Is(err, ErrFlagNotFound) {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	s.logger.Info().Str("flag", key).Msg("feature flag reset to default")
	return nil
}

// InvalidateCache clears the cached flags, forcing a refresh on next access.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Flag)
	s.cacheExpiry = time.Time{}
}

// IsEnabled returns true if the flag with the given key is truthy.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

// SignupDisabled reports whether new registrations are rejected.
func (s *Service) SignupDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableSignup)
}

// ReadOnly reports whether soil analysis writes are rejected.
func (s *Service) ReadOnly(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagReadOnlyMode)
}

// LowScoreAlertsDisabled reports whether low score alerts are suppressed.
func (s *Service) LowScoreAlertsDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableLowScoreAlerts)
}

// LowScoreAlertThreshold returns the score below which alerts are sent.
func (s *Service) LowScoreAlertThreshold(ctx context.Context) float64 {
	return s.GetFlag(ctx, FlagLowScoreAlertThreshold).Float64Value(6.0)
}

func (s *Service) getCached(key string) *Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.now().After(s.cacheExpiry) {
		return nil
	}
	return s.cache[key]
}

func (s *Service) setCached(flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[flag.Key] = flag
	if s.cacheExpiry.Before(s.now()) {
		s.cacheExpiry = s.now().Add(s.cacheTTL)
	}
}
