package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skillswap/internal/domain"
	"skillswap/internal/repository"
)

// OnboardingService coordina reglas de negocio del flujo de onboarding.
type OnboardingService struct {
	logger   *zap.Logger
	profiles repository.ProfileRepository
	limiter  SubmitRateLimiter
}

func NewOnboardingService(logger *zap.Logger, profiles repository.ProfileRepository, limiter SubmitRateLimiter) *OnboardingService {
	return &OnboardingService{
		logger:   logger,
		profiles: profiles,
		limiter:  limiter,
	}
}

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrAlreadyOnboarded = errors.New("already onboarded")
	ErrUsernameTaken    = errors.New("username taken")
	ErrWalletConnected  = errors.New("wallet already connected")
	ErrRateLimited      = errors.New("rate limited")
)

// ValidationFailedError agrupa los errores de campo del validador.
type ValidationFailedError struct {
	Errors []ValidationError
}

func (e *ValidationFailedError) Error() string {
	return "validation failed"
}

// Submit procesa el submission completo del wizard para el subject dado.
// El write es de un solo uso: un perfil ya onboardeado nunca se vuelve a
// escribir por esta vía, y ninguna rama de fallo llega a tocar el store.
func (s *OnboardingService) Submit(ctx context.Context, subject string, body map[string]any) (domain.UserProfile, error) {
	if s.profiles == nil {
		return domain.UserProfile{}, errors.New("onboarding service not configured")
	}

	if s.limiter != nil && !s.limiter.Allow(subject) {
		return domain.UserProfile{}, ErrRateLimited
	}

	if errs := ValidateOnboardingForm(body); len(errs) > 0 {
		return domain.UserProfile{}, &ValidationFailedError{Errors: errs}
	}

	existing, err := s.profiles.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, ErrProfileNotFound
		}
		return domain.UserProfile{}, err
	}

	if existing.Onboarded {
		return domain.UserProfile{}, ErrAlreadyOnboarded
	}

	username := trimmedField(body["username"])
	if username != "" && (existing.Username == nil || *existing.Username != username) {
		_, err := s.profiles.GetByUsername(ctx, username)
		if err == nil {
			return domain.UserProfile{}, ErrUsernameTaken
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, err
		}
	}

	wallet := trimmedField(body["walletAddress"])
	if wallet != "" {
		_, err := s.profiles.GetByWalletExcluding(ctx, wallet, subject)
		if err == nil {
			return domain.UserProfile{}, ErrWalletConnected
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, err
		}
	}

	update := reshapeSubmission(body, existing)

	updated, err := s.profiles.CompleteOnboarding(ctx, subject, update)
	if err != nil {
		// Los índices únicos del store son el respaldo de los pre-checks
		// ante submissions concurrentes.
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return domain.UserProfile{}, ErrUsernameTaken
		case errors.Is(err, repository.ErrDuplicateWallet):
			return domain.UserProfile{}, ErrWalletConnected
		}
		return domain.UserProfile{}, err
	}

	if s.logger != nil {
		s.logger.Info("onboarding completed", zap.String("profile_id", updated.ID))
	}
	return updated, nil
}

// OnboardingStatus reporta si el caller existe y si completó onboarding.
type OnboardingStatus struct {
	Exists    bool
	Onboarded bool
	Profile   *domain.UserProfile
}

// Status es de solo lectura, sin efectos secundarios.
func (s *OnboardingService) Status(ctx context.Context, subject string) (OnboardingStatus, error) {
	if s.profiles == nil {
		return OnboardingStatus{}, errors.New("onboarding service not configured")
	}

	profile, err := s.profiles.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OnboardingStatus{}, nil
		}
		return OnboardingStatus{}, err
	}

	return OnboardingStatus{
		Exists:    true,
		Onboarded: profile.Onboarded,
		Profile:   &profile,
	}, nil
}

// reshapeSubmission normaliza el payload crudo al registro de storage:
// opcionales de texto trimmeados o null, colecciones coercionadas a arrays
// sin entradas vacías, y avatar con fallback al valor ya guardado.
func reshapeSubmission(body map[string]any, existing domain.UserProfile) domain.OnboardingUpdate {
	name := stringField(body["name"])
	if name == "" {
		name = stringField(body["displayName"])
	}

	age, _ := numericValue(body["age"])

	avatarURL := existing.AvatarURL
	if trimmed := trimmedField(body["avatarUrl"]); trimmed != "" {
		avatarURL = &trimmed
	}

	var socialLinks map[string]any
	if obj, ok := body["socialLinks"].(map[string]any); ok {
		socialLinks = obj
	}

	return domain.OnboardingUpdate{
		Name:               name,
		Occupation:         stringField(body["occupation"]),
		Timezone:           stringField(body["timezone"]),
		Age:                int(age),
		Username:           trimmedOrNil(body["username"]),
		Bio:                trimmedOrNil(body["bio"]),
		AvatarURL:          avatarURL,
		Location:           trimmedOrNil(body["location"]),
		WalletAddress:      trimmedOrNil(body["walletAddress"]),
		Interests:          stringList(body["interests"]),
		PreferredLanguages: stringList(body["preferredLanguages"]),
		SkillsOffered:      skillList(body["skillsOffered"]),
		LearningGoals:      skillList(body["learningGoals"]),
		UserIntent:         stringList(body["userIntent"]),
		UserAvailability:   stringList(body["userAvailability"]),
		SocialLinks:        socialLinks,
	}
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

func trimmedField(v any) string {
	return strings.TrimSpace(stringField(v))
}

func trimmedOrNil(v any) *string {
	trimmed := trimmedField(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func stringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// skillList además reduce entradas con forma de objeto a su campo name.
func skillList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		switch entry := item.(type) {
		case string:
			if entry != "" {
				out = append(out, entry)
			}
		case map[string]any:
			if name, ok := entry["name"].(string); ok && name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// SubmitRateLimiter limita la frecuencia de submissions por subject.
type SubmitRateLimiter interface {
	Allow(key string) bool
}

type submitRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewSubmitRateLimiter crea un rate limiter en memoria.
func NewSubmitRateLimiter(window time.Duration, max int) SubmitRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &submitRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *submitRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}
