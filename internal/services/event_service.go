package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/signalex/signalex-be/internal/models"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, entityID *string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// recentEventsTTL bounds feed staleness; the cache is never invalidated
// on write, it simply expires.
const recentEventsTTL = 30 * time.Second

// EventService persists audit events and serves the recent-events feed.
// When a redis client is configured, the feed is cached read-through;
// cache errors degrade to the database, never to the caller.
type EventService struct {
	db    *sql.DB
	cache *redis.Client // nil disables caching
}

// NewEventService creates a new EventService. cache may be nil.
func NewEventService(db *sql.DB, cache *redis.Client) *EventService {
	return &EventService{db: db, cache: cache}
}

// CreateEvent stores a new audit event. The timestamp is set here
// rather than left to the column default, which only has second
// granularity and would make same-second feed ordering unstable.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, entityID *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		EntityID:  entityID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, entity_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.EntityID, event.CreatedAt)
	return err
}

// GetRecentEvents retrieves the most recent events.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	if events, ok := s.cachedRecentEvents(ctx, limit); ok {
		return events, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, entity_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.EntityID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.storeRecentEvents(ctx, limit, events)
	return events, nil
}

// PruneOlderThan deletes audit events created before the cutoff and
// returns how many rows were removed.
func (s *EventService) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

func (s *EventService) cachedRecentEvents(ctx context.Context, limit int) ([]models.Event, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, recentEventsKey(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Recent events cache read failed")
		}
		return nil, false
	}
	var events []models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, false
	}
	return events, true
}

func (s *EventService) storeRecentEvents(ctx context.Context, limit int, events []models.Event) {
	if s.cache == nil || len(events) == 0 {
		return
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, recentEventsKey(limit), raw, recentEventsTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("Recent events cache write failed")
	}
}

func recentEventsKey(limit int) string {
	return fmt.Sprintf("events:recent:%d", limit)
}
