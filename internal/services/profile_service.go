package services

import (
	"context"
	"errors"
	"log"

	"BandChat/server/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	EnsureProfile(ctx context.Context, userID uuid.UUID, fallbackName string) (*models.UserProfile, error)
	UpdateNickname(ctx context.Context, userID uuid.UUID, nickname string) error
}

type profileService struct {
	db DB
}

func NewProfileService(db DB) *profileService {
	return &profileService{db: db}
}

func (ps *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "nickname", "email").
		From("user_profiles").
		Where(squirrel.Eq{"id": userID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	var profile models.UserProfile
	err = ps.db.QueryRow(ctx, sqlStr, args...).Scan(&profile.ID, &profile.Nickname, &profile.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		log.Printf("Error fetching profile %s: %v", userID, err)
		return nil, err
	}

	return &profile, nil
}

// EnsureProfile returns the user's profile row, creating it with the
// fallback nickname when absent. A concurrent create is tolerated: the
// insert's unique violation is swallowed and the winning row is re-read, so
// exactly one row per user survives any interleaving.
func (ps *profileService) EnsureProfile(ctx context.Context, userID uuid.UUID, fallbackName string) (*models.UserProfile, error) {
	profile, err := ps.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		return nil, err
	}

	nickname := fallbackName
	if nickname == "" {
		nickname = models.AnonymousNickname
	}

	insert := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("user_profiles").
		Columns("id", "nickname").
		Values(userID, nickname)

	sqlStr, args, err := insert.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	_, err = ps.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			log.Printf("Profile %s created concurrently, re-reading", userID)
			return ps.GetProfile(ctx, userID)
		}
		log.Printf("Error creating profile %s: %v", userID, err)
		return nil, err
	}

	log.Printf("Profile created for user %s (nickname %q)", userID, nickname)
	return &models.UserProfile{ID: userID, Nickname: nickname}, nil
}

func (ps *profileService) UpdateNickname(ctx context.Context, userID uuid.UUID, nickname string) error {
	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Update("user_profiles").
		Set("nickname", nickname).
		Where(squirrel.Eq{"id": userID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	result, err := ps.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error updating nickname for %s: %v", userID, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return models.ErrProfileNotFound
	}

	return nil
}
