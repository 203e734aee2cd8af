package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"innkeep/internal/app/outbox"
)

const (
	outboxPending = "pending"
	outboxClaimed = "claimed"
	outboxSent    = "sent"
)

func nowUTC() time.Time { return time.Now().UTC() }

// outboxStore is the transactional side: Add runs inside the unit of
// work so events commit atomically with the state they describe.
type outboxStore struct {
	tx *gorm.DB
}

func (s *outboxStore) Add(ctx context.Context, record outbox.EventRecord) error {
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return err
	}
	row := outboxRecord{
		ID:         record.ID,
		Name:       record.Name,
		Aggregate:  record.Aggregate,
		Payload:    record.Payload,
		Headers:    headers,
		OccurredAt: record.OccurredAt,
		Status:     outboxPending,
		CreatedAt:  nowUTC(),
	}
	return translate(s.tx.WithContext(ctx).Create(&row).Error, record.ID)
}

// OutboxStore is the relay side, used by the background worker on the
// root handle, outside any unit of work.
type OutboxStore struct {
	DB *gorm.DB
}

// Claim picks the oldest due pending event and marks it claimed,
// returning nil when nothing is due. With Postgres, SKIP LOCKED keeps
// competing relays from fighting over the same row.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*outbox.EventRecord, error) {
	var row outboxRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)",
				outboxPending, nowUTC()).
			Order("occurred_at")
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.First(&row).Error; err != nil {
			return err
		}
		return tx.Model(&outboxRecord{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{"status": outboxClaimed, "claimed_by": workerID}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, workerID)
	}
	var headers map[string]string
	if len(row.Headers) > 0 {
		if err := json.Unmarshal(row.Headers, &headers); err != nil {
			return nil, err
		}
	}
	return &outbox.EventRecord{
		ID:         row.ID,
		Name:       row.Name,
		Payload:    row.Payload,
		OccurredAt: row.OccurredAt,
		Aggregate:  row.Aggregate,
		Headers:    headers,
	}, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	now := nowUTC()
	err := s.DB.WithContext(ctx).Model(&outboxRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": outboxSent, "sent_at": &now}).Error
	return translate(err, id)
}

// MarkFailed returns the event to the pending pool with a retry delay.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string, retryAt time.Time, cause string) error {
	err := s.DB.WithContext(ctx).Model(&outboxRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          outboxPending,
			"attempts":        gorm.Expr("attempts + 1"),
			"next_attempt_at": &retryAt,
			"last_error":      cause,
		}).Error
	return translate(err, id)
}
