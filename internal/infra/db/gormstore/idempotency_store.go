package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"innkeep/internal/app/uow"
)

type idempotencyStore struct {
	tx *gorm.DB
}

func (s *idempotencyStore) Find(ctx context.Context, tenantID, endpoint, method, key string) (*uow.IdempotencyRecord, error) {
	var rec idempotencyRecord
	err := s.tx.WithContext(ctx).
		Where("tenant_id = ? AND endpoint = ? AND method = ? AND key = ?",
			tenantID, endpoint, method, key).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, key)
	}
	if !rec.ExpiresAt.After(nowUTC()) {
		// An expired record counts as unseen. Remove it here, inside the
		// unit of work, so the retry's Save does not collide with the
		// stale row on the tuple index.
		err := s.tx.WithContext(ctx).
			Where("tenant_id = ? AND endpoint = ? AND method = ? AND key = ?",
				tenantID, endpoint, method, key).
			Delete(&idempotencyRecord{}).Error
		if err != nil {
			return nil, translate(err, key)
		}
		return nil, nil
	}
	return &uow.IdempotencyRecord{
		TenantID:       rec.TenantID,
		Endpoint:       rec.Endpoint,
		Method:         rec.Method,
		Key:            rec.Key,
		RequestHash:    rec.RequestHash,
		ResponseStatus: rec.ResponseStatus,
		ResponseBody:   rec.ResponseBody,
		ExpiresAt:      rec.ExpiresAt,
	}, nil
}

func (s *idempotencyStore) Save(ctx context.Context, rec *uow.IdempotencyRecord) error {
	row := idempotencyRecord{
		TenantID:       rec.TenantID,
		Endpoint:       rec.Endpoint,
		Method:         rec.Method,
		Key:            rec.Key,
		RequestHash:    rec.RequestHash,
		ResponseStatus: rec.ResponseStatus,
		ResponseBody:   rec.ResponseBody,
		ExpiresAt:      rec.ExpiresAt,
	}
	err := s.tx.WithContext(ctx).Create(&row).Error
	return translate(err, rec.Key)
}

// PurgeExpiredIdempotency removes records past their TTL. Run on the
// root handle, outside any unit of work.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", nowUTC()).
		Delete(&idempotencyRecord{})
	return res.RowsAffected, translate(res.Error, "purge")
}
