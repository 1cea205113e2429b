package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/internal/telemetry/tracing"
)

const cacheSize = 10 * 1024 * 1024

// Service serves profiles through a read cache; every write replaces the
// cached entry of the written profile.
type Service struct {
	repo     Repo
	cache    *freecache.Cache
	cacheMu  sync.Mutex
	cacheTTL int
}

func NewService(repo Repo, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		cache:    freecache.NewCache(cacheSize),
		cacheTTL: int(cacheTTL.Seconds()),
	}
}

func cacheKey(userID string) []byte {
	return []byte("profile::" + userID)
}

// Seed stores the default profile for userID unless one exists already.
func (s *Service) Seed(ctx context.Context, userID string) error {
	if err := s.repo.Insert(ctx, DefaultProfile(userID)); err != nil {
		return fmt.Errorf("seed profile %s: %w", userID, err)
	}
	log.Debugf("profile seeded for user [%s]", userID)
	return nil
}

func (s *Service) Get(ctx context.Context, userID string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if s.cacheTTL > 0 {
		if cached, err := s.cache.Get(cacheKey(userID)); err == nil {
			p := &Profile{}
			if err := json.Unmarshal(cached, p); err == nil {
				log.Tracef("profile of [%s] found in cache", userID)
				return p, nil
			} else {
				log.Errorf("failed to unmarshal cached profile of [%s]: %s", userID, err)
			}
		}
	}

	p, err := s.repo.Get(ctx, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	s.setCache(p)
	return p, nil
}

// Replace overwrites the personal fields, leaving preferences and stats as they are.
func (s *Service) Replace(ctx context.Context, userID string, form ProfileForm) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.replace")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.update(ctx, userID, form.Apply)
}

func (s *Service) UpdatePreferences(ctx context.Context, userID string, form PreferencesForm) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.update.preferences")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.update(ctx, userID, func(p *Profile) {
		form.Merge(&p.Preferences)
	})
}

func (s *Service) UpdateStats(ctx context.Context, userID string, form StatsForm) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.update.stats")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.update(ctx, userID, func(p *Profile) {
		form.Apply(&p.Stats)
	})
}

func (s *Service) update(ctx context.Context, userID string, apply func(*Profile)) (*Profile, error) {
	updated, err := s.repo.Update(ctx, userID, userID, func(p *Profile) error {
		apply(p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.setCache(updated)
	return updated, nil
}

// setCache stores p unless the cache already holds a newer version of it.
// Reads that raced with a write may finish after it, and must not put the
// old row back.
func (s *Service) setCache(p *Profile) {
	if s.cacheTTL <= 0 {
		return
	}

	key := cacheKey(p.UserID)
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if cached, err := s.cache.Get(key); err == nil {
		current := &Profile{}
		if err := json.Unmarshal(cached, current); err == nil && current.UpdatedAt.After(p.UpdatedAt) {
			log.Tracef("cached profile of [%s] is newer, skipping", p.UserID)
			return
		}
	}

	profileBytes, err := json.Marshal(p)
	if err != nil {
		log.Errorf("failed to marshal profile of [%s] for cache: %s", p.UserID, err)
		s.cache.Del(key)
		return
	}
	if err := s.cache.Set(key, profileBytes, s.cacheTTL); err != nil {
		log.Errorf("failed to cache profile of [%s]: %s", p.UserID, err)
		s.cache.Del(key)
	}
}
