package services

import (
	"context"
	"log"
	"strings"

	"BandChat/server/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// fetchLimit caps a message fetch. There is no pagination beyond it.
const fetchLimit = 50

// MessagePublisher receives every successfully inserted message, exactly
// once, for realtime fan-out.
type MessagePublisher interface {
	Publish(msg models.Message)
}

type MessageService interface {
	FetchMessages(ctx context.Context) ([]models.Message, error)
	SendMessage(ctx context.Context, userID uuid.UUID, senderName, content string) (*models.Message, error)
}

type messageService struct {
	db        DB
	profiles  ProfileService
	publisher MessagePublisher
}

func NewMessageService(db DB, profiles ProfileService, publisher MessagePublisher) *messageService {
	return &messageService{db: db, profiles: profiles, publisher: publisher}
}

// FetchMessages returns the most recent messages ordered ascending by
// created_at, each joined with the sender's nickname. Senders without a
// profile row show up as Anonymous.
func (ms *messageService) FetchMessages(ctx context.Context) ([]models.Message, error) {
	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("m.id", "m.content", "m.user_id", "m.channel", "m.created_at",
			"COALESCE(p.nickname, '"+models.AnonymousNickname+"') AS nickname").
		From("messages m").
		LeftJoin("user_profiles p ON m.user_id = p.id").
		OrderBy("m.created_at ASC").
		Limit(fetchLimit)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	rows, err := ms.db.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error fetching messages: %v", err)
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.ID, &msg.Content, &msg.UserID, &msg.Channel, &msg.CreatedAt, &msg.Nickname)
		if err != nil {
			log.Printf("Error scanning message row: %v", err)
			return nil, err
		}
		messages = append(messages, msg)
	}
	if rows.Err() != nil {
		log.Printf("Error after iterating message rows: %v", rows.Err())
		return nil, rows.Err()
	}

	return messages, nil
}

// SendMessage validates the content, lazily creates the sender's profile row
// and inserts the message into the global channel. The returned row carries
// the joined nickname so callers can append it optimistically without
// waiting for the realtime event.
func (ms *messageService) SendMessage(ctx context.Context, userID uuid.UUID, senderName, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.ErrEmptyMessage
	}

	profile, err := ms.profiles.EnsureProfile(ctx, userID, senderName)
	if err != nil {
		log.Printf("Cannot send message, profile lookup failed for %s: %v", userID, err)
		return nil, err
	}

	msg := models.Message{
		ID:       uuid.New(),
		Content:  content,
		UserID:   userID,
		Channel:  models.GlobalChannel,
		Nickname: profile.Nickname,
	}

	insert := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("messages").
		Columns("id", "content", "user_id", "channel").
		Values(msg.ID, msg.Content, msg.UserID, msg.Channel).
		Suffix("RETURNING created_at")

	sqlStr, args, err := insert.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	err = ms.db.QueryRow(ctx, sqlStr, args...).Scan(&msg.CreatedAt)
	if err != nil {
		log.Printf("Error saving message from %s: %v", userID, err)
		return nil, err
	}

	log.Printf("Message %s saved to channel %s by %s", msg.ID, msg.Channel, userID)

	if ms.publisher != nil {
		ms.publisher.Publish(msg)
	}

	return &msg, nil
}
