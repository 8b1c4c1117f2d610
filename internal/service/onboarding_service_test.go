package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skillswap/internal/domain"
	"skillswap/internal/repository"
)

type mockProfileRepo struct {
	profilesBySubject map[string]domain.UserProfile
	reads             int
	writes            int
	completeErr       error
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{
		profilesBySubject: make(map[string]domain.UserProfile),
	}
}

func (m *mockProfileRepo) Create(_ context.Context, profile domain.UserProfile) error {
	m.writes++
	m.profilesBySubject[profile.Subject] = profile
	return nil
}

func (m *mockProfileRepo) GetBySubject(_ context.Context, subject string) (domain.UserProfile, error) {
	m.reads++
	profile, ok := m.profilesBySubject[subject]
	if !ok {
		return domain.UserProfile{}, pgx.ErrNoRows
	}
	return profile, nil
}

func (m *mockProfileRepo) GetByUsername(_ context.Context, username string) (domain.UserProfile, error) {
	m.reads++
	for _, profile := range m.profilesBySubject {
		if profile.Username != nil && *profile.Username == username {
			return profile, nil
		}
	}
	return domain.UserProfile{}, pgx.ErrNoRows
}

func (m *mockProfileRepo) GetByWalletExcluding(_ context.Context, wallet, subject string) (domain.UserProfile, error) {
	m.reads++
	for _, profile := range m.profilesBySubject {
		if profile.Subject != subject && profile.WalletAddress != nil && *profile.WalletAddress == wallet {
			return profile, nil
		}
	}
	return domain.UserProfile{}, pgx.ErrNoRows
}

func (m *mockProfileRepo) CompleteOnboarding(_ context.Context, subject string, update domain.OnboardingUpdate) (domain.UserProfile, error) {
	if m.completeErr != nil {
		return domain.UserProfile{}, m.completeErr
	}
	profile, ok := m.profilesBySubject[subject]
	if !ok {
		return domain.UserProfile{}, pgx.ErrNoRows
	}
	profile.Name = update.Name
	profile.Occupation = update.Occupation
	profile.Timezone = update.Timezone
	profile.Age = update.Age
	profile.Username = update.Username
	profile.Bio = update.Bio
	profile.AvatarURL = update.AvatarURL
	profile.Location = update.Location
	profile.WalletAddress = update.WalletAddress
	profile.Interests = update.Interests
	profile.PreferredLanguages = update.PreferredLanguages
	profile.SkillsOffered = update.SkillsOffered
	profile.LearningGoals = update.LearningGoals
	profile.UserIntent = update.UserIntent
	profile.UserAvailability = update.UserAvailability
	profile.SocialLinks = update.SocialLinks
	profile.Onboarded = true
	m.profilesBySubject[subject] = profile
	m.writes++
	return profile, nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func seedProfile(repo *mockProfileRepo, subject string) domain.UserProfile {
	profile := domain.UserProfile{
		ID:        "id-" + subject,
		Subject:   subject,
		Name:      "Signup Name",
		Onboarded: false,
		CreatedAt: time.Now().UTC(),
	}
	repo.profilesBySubject[subject] = profile
	return profile
}

func submission() map[string]any {
	return map[string]any{
		"name":       "Ada",
		"occupation": "Student",
		"timezone":   "UTC+00:00",
		"age":        float64(21),
	}
}

func newTestService(repo *mockProfileRepo) *OnboardingService {
	return NewOnboardingService(zap.NewNop(), repo, allowAllLimiter{})
}

func TestSubmit_ProfileNotFound(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestService(repo)

	_, err := svc.Submit(context.Background(), "sub-1", submission())
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	if repo.writes != 0 {
		t.Fatalf("expected no writes, got %d", repo.writes)
	}
}

func TestSubmit_ValidationFailureSkipsStore(t *testing.T) {
	repo := newMockProfileRepo()
	seedProfile(repo, "sub-1")
	svc := newTestService(repo)

	body := submission()
	body["age"] = float64(10)

	_, err := svc.Submit(context.Background(), "sub-1", body)
	var validationErr *ValidationFailedError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationFailedError, got %v", err)
	}
	if len(validationErr.Errors) != 1 || validationErr.Errors[0].Field != "age" {
		t.Fatalf("expected single age error, got %+v", validationErr.Errors)
	}
	if repo.reads != 0 || repo.writes != 0 {
		t.Fatalf("expected no store access, got reads=%d writes=%d", repo.reads, repo.writes)
	}
}

func TestSubmit_SucceedsOnceThenAlreadyOnboarded(t *testing.T) {
	repo := newMockProfileRepo()
	seedProfile(repo, "sub-1")
	svc := newTestService(repo)

	user, err := svc.Submit(context.Background(), "sub-1", submission())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if !user.Onboarded {
		t.Fatalf("expected onboarded=true after submit")
	}
	if user.Name != "Ada" || user.Age != 21 {
		t.Fatalf("unexpected record %+v", user)
	}
	if repo.writes != 1 {
		t.Fatalf("expected 1 write, got %d", repo.writes)
	}

	_, err = svc.Submit(context.Background(), "sub-1", submission())
	if !errors.Is(err, ErrAlreadyOnboarded) {
		t.Fatalf("expected ErrAlreadyOnboarded, got %v", err)
	}
	if repo.writes != 1 {
		t.Fatalf("expected no extra write, got %d", repo.writes)
	}
}

func TestSubmit_UsernameConflicts(t *testing.T) {
	t.Run("taken by another identity", func(t *testing.T) {
		repo := newMockProfileRepo()
		seedProfile(repo, "sub-1")
		other := seedProfile(repo, "sub-2")
		taken := "ada"
		other.Username = &taken
		repo.profilesBySubject["sub-2"] = other

		svc := newTestService(repo)
		body := submission()
		body["username"] = "ada"

		_, err := svc.Submit(context.Background(), "sub-1", body)
		if !errors.Is(err, ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
		if repo.writes != 0 {
			t.Fatalf("expected no writes, got %d", repo.writes)
		}
	})

	t.Run("own username accepted", func(t *testing.T) {
		repo := newMockProfileRepo()
		profile := seedProfile(repo, "sub-1")
		own := "ada"
		profile.Username = &own
		repo.profilesBySubject["sub-1"] = profile

		svc := newTestService(repo)
		body := submission()
		body["username"] = "ada"

		user, err := svc.Submit(context.Background(), "sub-1", body)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if user.Username == nil || *user.Username != "ada" {
			t.Fatalf("expected username kept, got %+v", user.Username)
		}
	})
}

func TestSubmit_WalletConflicts(t *testing.T) {
	t.Run("connected to another identity", func(t *testing.T) {
		repo := newMockProfileRepo()
		seedProfile(repo, "sub-1")
		other := seedProfile(repo, "sub-2")
		wallet := "0xabc"
		other.WalletAddress = &wallet
		repo.profilesBySubject["sub-2"] = other

		svc := newTestService(repo)
		body := submission()
		body["walletAddress"] = "0xabc"

		_, err := svc.Submit(context.Background(), "sub-1", body)
		if !errors.Is(err, ErrWalletConnected) {
			t.Fatalf("expected ErrWalletConnected, got %v", err)
		}
		if repo.writes != 0 {
			t.Fatalf("expected no writes, got %d", repo.writes)
		}
	})

	t.Run("own wallet accepted", func(t *testing.T) {
		repo := newMockProfileRepo()
		profile := seedProfile(repo, "sub-1")
		wallet := "0xabc"
		profile.WalletAddress = &wallet
		repo.profilesBySubject["sub-1"] = profile

		svc := newTestService(repo)
		body := submission()
		body["walletAddress"] = "0xabc"

		if _, err := svc.Submit(context.Background(), "sub-1", body); err != nil {
			t.Fatalf("submit: %v", err)
		}
	})
}

func TestSubmit_WriteTimeConstraintViolations(t *testing.T) {
	cases := []struct {
		name     string
		storeErr error
		wantErr  error
	}{
		{"duplicate username", repository.ErrDuplicateUsername, ErrUsernameTaken},
		{"duplicate wallet", repository.ErrDuplicateWallet, ErrWalletConnected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockProfileRepo()
			seedProfile(repo, "sub-1")
			repo.completeErr = tc.storeErr

			svc := newTestService(repo)
			_, err := svc.Submit(context.Background(), "sub-1", submission())
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	repo := newMockProfileRepo()
	seedProfile(repo, "sub-1")
	svc := NewOnboardingService(zap.NewNop(), repo, denyAllLimiter{})

	_, err := svc.Submit(context.Background(), "sub-1", submission())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if repo.reads != 0 || repo.writes != 0 {
		t.Fatalf("expected no store access, got reads=%d writes=%d", repo.reads, repo.writes)
	}
}

func TestSubmit_ReshapesPayload(t *testing.T) {
	repo := newMockProfileRepo()
	profile := seedProfile(repo, "sub-1")
	storedAvatar := "https://cdn.example.com/old.png"
	profile.AvatarURL = &storedAvatar
	repo.profilesBySubject["sub-1"] = profile

	svc := newTestService(repo)
	body := map[string]any{
		"displayName": "Ada Lovelace",
		"name":        "",
		"occupation":  "Student",
		"timezone":    "UTC+00:00",
		"age":         "21",
		"bio":         "   ",
		"location":    "  London ",
		"avatarUrl":   "",
		"skillsOffered": []any{
			map[string]any{"name": "Chess"},
			"Guitar",
			"",
			map[string]any{"level": "expert"},
		},
		"learningGoals":      []any{"Go", float64(7)},
		"interests":          "not-an-array",
		"preferredLanguages": []any{"English", ""},
		"socialLinks":        "not-an-object",
	}

	user, err := svc.Submit(context.Background(), "sub-1", body)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if user.Name != "Ada Lovelace" {
		t.Fatalf("expected displayName fallback, got %q", user.Name)
	}
	if user.Age != 21 {
		t.Fatalf("expected numeric coercion to 21, got %d", user.Age)
	}
	if user.Bio != nil {
		t.Fatalf("expected blank bio stored as null, got %q", *user.Bio)
	}
	if user.Location == nil || *user.Location != "London" {
		t.Fatalf("expected trimmed location, got %+v", user.Location)
	}
	if user.AvatarURL == nil || *user.AvatarURL != storedAvatar {
		t.Fatalf("expected avatar fallback to stored value, got %+v", user.AvatarURL)
	}
	if want := []string{"Chess", "Guitar"}; !reflect.DeepEqual(user.SkillsOffered, want) {
		t.Fatalf("expected skillsOffered %v, got %v", want, user.SkillsOffered)
	}
	if want := []string{"Go"}; !reflect.DeepEqual(user.LearningGoals, want) {
		t.Fatalf("expected learningGoals %v, got %v", want, user.LearningGoals)
	}
	if len(user.Interests) != 0 {
		t.Fatalf("expected non-array interests coerced to empty, got %v", user.Interests)
	}
	if want := []string{"English"}; !reflect.DeepEqual(user.PreferredLanguages, want) {
		t.Fatalf("expected preferredLanguages %v, got %v", want, user.PreferredLanguages)
	}
	if user.SocialLinks != nil {
		t.Fatalf("expected non-object socialLinks stored as null, got %v", user.SocialLinks)
	}
}

func TestSubmit_KeepsSocialLinksObject(t *testing.T) {
	repo := newMockProfileRepo()
	seedProfile(repo, "sub-1")
	svc := newTestService(repo)

	body := submission()
	body["socialLinks"] = map[string]any{"github": "https://github.com/ada"}

	user, err := svc.Submit(context.Background(), "sub-1", body)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if user.SocialLinks["github"] != "https://github.com/ada" {
		t.Fatalf("expected socialLinks kept, got %v", user.SocialLinks)
	}
}

func TestStatus(t *testing.T) {
	t.Run("no profile", func(t *testing.T) {
		repo := newMockProfileRepo()
		svc := newTestService(repo)

		status, err := svc.Status(context.Background(), "sub-1")
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if status.Exists || status.Onboarded || status.Profile != nil {
			t.Fatalf("expected empty status, got %+v", status)
		}
	})

	t.Run("pending onboarding", func(t *testing.T) {
		repo := newMockProfileRepo()
		seedProfile(repo, "sub-1")
		svc := newTestService(repo)

		status, err := svc.Status(context.Background(), "sub-1")
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if !status.Exists || status.Onboarded || status.Profile == nil {
			t.Fatalf("expected exists without onboarding, got %+v", status)
		}
	})

	t.Run("onboarded", func(t *testing.T) {
		repo := newMockProfileRepo()
		profile := seedProfile(repo, "sub-1")
		profile.Onboarded = true
		repo.profilesBySubject["sub-1"] = profile
		svc := newTestService(repo)

		status, err := svc.Status(context.Background(), "sub-1")
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if !status.Exists || !status.Onboarded {
			t.Fatalf("expected onboarded status, got %+v", status)
		}
		if repo.writes != 0 {
			t.Fatalf("status must not write, got %d writes", repo.writes)
		}
	})
}

func TestSubmitRateLimiter_Window(t *testing.T) {
	limiter := NewSubmitRateLimiter(time.Minute, 2)
	if !limiter.Allow("sub-1") || !limiter.Allow("sub-1") {
		t.Fatalf("expected first two submissions allowed")
	}
	if limiter.Allow("sub-1") {
		t.Fatalf("expected third submission denied")
	}
	if !limiter.Allow("sub-2") {
		t.Fatalf("expected other subjects unaffected")
	}
}
