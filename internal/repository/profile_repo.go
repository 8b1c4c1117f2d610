package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillswap/internal/domain"
)

// ProfileRepository define el contrato de persistencia para perfiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile domain.UserProfile) error
	GetBySubject(ctx context.Context, subject string) (domain.UserProfile, error)
	GetByUsername(ctx context.Context, username string) (domain.UserProfile, error)
	GetByWalletExcluding(ctx context.Context, wallet, subject string) (domain.UserProfile, error)
	CompleteOnboarding(ctx context.Context, subject string, update domain.OnboardingUpdate) (domain.UserProfile, error)
}

// Errores de violación de unicidad detectados al momento del write.
// Los índices únicos de la tabla son el respaldo real de los pre-checks.
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateWallet   = errors.New("wallet address already exists")
)

// PgProfileRepository implementa ProfileRepository usando pgxpool.
type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

const profileColumns = `
	id, subject, name, occupation, timezone, age,
	username, bio, avatar_url, location, wallet_address,
	interests, preferred_languages, skills_offered, learning_goals,
	user_intent, user_availability, social_links, onboarded, created_at
`

func (r *PgProfileRepository) Create(ctx context.Context, profile domain.UserProfile) error {
	const query = `
		INSERT INTO profiles (id, subject, name, onboarded, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.Subject,
		profile.Name,
		profile.Onboarded,
		profile.CreatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *PgProfileRepository) GetBySubject(ctx context.Context, subject string) (domain.UserProfile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE subject = $1
	`
	return r.scanProfile(r.pool.QueryRow(ctx, query, subject))
}

func (r *PgProfileRepository) GetByUsername(ctx context.Context, username string) (domain.UserProfile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE username = $1
	`
	return r.scanProfile(r.pool.QueryRow(ctx, query, username))
}

// GetByWalletExcluding busca la wallet en cualquier perfil que no sea el del
// caller, igual que el chequeo de conflicto previo al write.
func (r *PgProfileRepository) GetByWalletExcluding(ctx context.Context, wallet, subject string) (domain.UserProfile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE wallet_address = $1 AND subject <> $2
		LIMIT 1
	`
	return r.scanProfile(r.pool.QueryRow(ctx, query, wallet, subject))
}

func (r *PgProfileRepository) CompleteOnboarding(ctx context.Context, subject string, update domain.OnboardingUpdate) (domain.UserProfile, error) {
	const query = `
		UPDATE profiles SET
			name = $2,
			occupation = $3,
			timezone = $4,
			age = $5,
			username = $6,
			bio = $7,
			avatar_url = $8,
			location = $9,
			wallet_address = $10,
			interests = $11,
			preferred_languages = $12,
			skills_offered = $13,
			learning_goals = $14,
			user_intent = $15,
			user_availability = $16,
			social_links = $17,
			onboarded = TRUE
		WHERE subject = $1
		RETURNING ` + profileColumns + `
	`
	var social any
	if update.SocialLinks != nil {
		social = update.SocialLinks
	}
	profile, err := r.scanProfile(r.pool.QueryRow(ctx, query,
		subject,
		update.Name,
		update.Occupation,
		update.Timezone,
		update.Age,
		update.Username,
		update.Bio,
		update.AvatarURL,
		update.Location,
		update.WalletAddress,
		update.Interests,
		update.PreferredLanguages,
		update.SkillsOffered,
		update.LearningGoals,
		update.UserIntent,
		update.UserAvailability,
		social,
	))
	if err != nil {
		return domain.UserProfile{}, mapUniqueViolation(err)
	}
	return profile, nil
}

func (r *PgProfileRepository) scanProfile(row pgx.Row) (domain.UserProfile, error) {
	var p domain.UserProfile
	err := row.Scan(
		&p.ID,
		&p.Subject,
		&p.Name,
		&p.Occupation,
		&p.Timezone,
		&p.Age,
		&p.Username,
		&p.Bio,
		&p.AvatarURL,
		&p.Location,
		&p.WalletAddress,
		&p.Interests,
		&p.PreferredLanguages,
		&p.SkillsOffered,
		&p.LearningGoals,
		&p.UserIntent,
		&p.UserAvailability,
		&p.SocialLinks,
		&p.Onboarded,
		&p.CreatedAt,
	)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return p, nil
}

// mapUniqueViolation traduce errores 23505 de Postgres a los sentinels del
// repositorio según el índice violado.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return ErrDuplicateUsername
	case strings.Contains(pgErr.ConstraintName, "wallet"):
		return ErrDuplicateWallet
	default:
		return err
	}
}
