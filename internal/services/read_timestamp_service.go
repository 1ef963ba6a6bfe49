package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type ReadTimestampService interface {
	FetchLastRead(ctx context.Context, userID uuid.UUID) (*time.Time, error)
	UpdateLastRead(ctx context.Context, userID uuid.UUID, fallbackName string, ts time.Time) error
}

type readTimestampService struct {
	db       DB
	profiles ProfileService
}

func NewReadTimestampService(db DB, profiles ProfileService) *readTimestampService {
	return &readTimestampService{db: db, profiles: profiles}
}

// FetchLastRead loads the user's last read timestamp. A missing row is not
// an error: it means "never read" and returns nil.
func (rs *readTimestampService) FetchLastRead(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("last_read_at").
		From("chat_read_timestamps").
		Where(squirrel.Eq{"user_id": userID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	var lastRead time.Time
	err = rs.db.QueryRow(ctx, sqlStr, args...).Scan(&lastRead)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Printf("Error fetching last read timestamp for %s: %v", userID, err)
		return nil, err
	}

	return &lastRead, nil
}

// UpdateLastRead records the user's read boundary with update-if-exists,
// else-insert semantics. Two concurrent first writes can both observe "no
// row"; the loser's unique violation is advisory only, so it falls through
// to an update of the winning row instead of failing.
func (rs *readTimestampService) UpdateLastRead(ctx context.Context, userID uuid.UUID, fallbackName string, ts time.Time) error {
	if _, err := rs.profiles.EnsureProfile(ctx, userID, fallbackName); err != nil {
		log.Printf("Cannot update read timestamp, profile lookup failed for %s: %v", userID, err)
		return err
	}

	exists, err := rs.rowExists(ctx, userID)
	if err != nil {
		return err
	}

	if exists {
		return rs.update(ctx, userID, ts)
	}

	insert := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("chat_read_timestamps").
		Columns("user_id", "last_read_at").
		Values(userID, ts)

	sqlStr, args, err := insert.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	_, err = rs.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			log.Printf("Read timestamp row for %s created concurrently, updating instead", userID)
			return rs.update(ctx, userID, ts)
		}
		log.Printf("Error inserting read timestamp for %s: %v", userID, err)
		return err
	}

	return nil
}

func (rs *readTimestampService) rowExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1
            FROM chat_read_timestamps
            WHERE user_id = $1
        )
    `

	var exists bool
	err := rs.db.QueryRow(ctx, query, userID).Scan(&exists)
	if err != nil {
		log.Printf("Error checking read timestamp row for %s: %v", userID, err)
		return false, err
	}

	return exists, nil
}

func (rs *readTimestampService) update(ctx context.Context, userID uuid.UUID, ts time.Time) error {
	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Update("chat_read_timestamps").
		Set("last_read_at", ts).
		Where(squirrel.Eq{"user_id": userID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	_, err = rs.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error updating read timestamp for %s: %v", userID, err)
		return err
	}

	return nil
}
