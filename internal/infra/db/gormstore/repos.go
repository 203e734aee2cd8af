package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainbooking "innkeep/internal/domain/booking"
	domainguest "innkeep/internal/domain/guest"
	domaininventory "innkeep/internal/domain/inventory"
	domainproperty "innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
)

type propertyRepo struct {
	tx *gorm.DB
}

func (r *propertyRepo) ByID(ctx context.Context, tenantID string, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	var rec propertyRecord
	err := r.tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, string(id)).
		First(&rec).Error
	if err != nil {
		return nil, translate(err, string(id))
	}
	return &domainproperty.Property{
		ID:        domainproperty.PropertyID(rec.ID),
		TenantID:  rec.TenantID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (r *propertyRepo) Save(ctx context.Context, p *domainproperty.Property) error {
	rec := propertyRecord{
		ID:        string(p.ID),
		TenantID:  p.TenantID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	err := r.tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&rec).Error
	return translate(err, string(p.ID))
}

type guestRepo struct {
	tx *gorm.DB
}

func (r *guestRepo) ByID(ctx context.Context, tenantID string, id domainguest.GuestID) (*domainguest.Guest, error) {
	var rec guestRecord
	err := r.tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, string(id)).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainguest.ErrGuestNotFound
	}
	if err != nil {
		return nil, translate(err, string(id))
	}
	return guestFromRecord(rec), nil
}

func (r *guestRepo) FindOrCreateByEmail(ctx context.Context, tenantID, email, name string) (*domainguest.Guest, error) {
	var rec guestRecord
	err := r.tx.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, email).
		First(&rec).Error
	if err == nil {
		return guestFromRecord(rec), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate(err, email)
	}
	rec = guestRecord{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.tx.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, translate(err, email)
	}
	return guestFromRecord(rec), nil
}

func guestFromRecord(rec guestRecord) *domainguest.Guest {
	return &domainguest.Guest{
		ID:        domainguest.GuestID(rec.ID),
		TenantID:  rec.TenantID,
		Email:     rec.Email,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
	}
}

type bookingRepo struct {
	tx *gorm.DB
}

func (r *bookingRepo) ByID(ctx context.Context, tenantID string, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var rec bookingRecord
	err := r.tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, string(id)).
		First(&rec).Error
	if err != nil {
		return nil, translate(err, string(id))
	}
	return bookingFromRecord(rec)
}

func (r *bookingRepo) Save(ctx context.Context, b *domainbooking.Booking) error {
	var guestID *string
	if b.GuestID != nil {
		s := string(*b.GuestID)
		guestID = &s
	}
	rec := bookingRecord{
		ID:                 string(b.ID),
		TenantID:           b.TenantID,
		PropertyID:         string(b.PropertyID),
		GuestID:            guestID,
		CheckIn:            b.Range.Start,
		CheckOut:           b.Range.End,
		Status:             string(b.Status),
		QuotedTotalCents:   b.QuotedTotalCents,
		ConfirmedAt:        b.ConfirmedAt,
		CancelledAt:        b.CancelledAt,
		CancelledBy:        b.CancelledBy,
		CancellationReason: b.CancellationReason,
		InternalNotes:      b.InternalNotes,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	err := r.tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&rec).Error
	return translate(err, "guest_id")
}

func (r *bookingRepo) ListByProperty(ctx context.Context, tenantID string, id domainproperty.PropertyID) ([]*domainbooking.Booking, error) {
	var recs []bookingRecord
	err := r.tx.WithContext(ctx).
		Where("tenant_id = ? AND property_id = ?", tenantID, string(id)).
		Order("check_in").
		Find(&recs).Error
	if err != nil {
		return nil, translate(err, string(id))
	}
	out := make([]*domainbooking.Booking, 0, len(recs))
	for _, rec := range recs {
		b, err := bookingFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func bookingFromRecord(rec bookingRecord) (*domainbooking.Booking, error) {
	span, err := daterange.New(rec.CheckIn, rec.CheckOut)
	if err != nil {
		return nil, err
	}
	var guestID *domainguest.GuestID
	if rec.GuestID != nil {
		g := domainguest.GuestID(*rec.GuestID)
		guestID = &g
	}
	return &domainbooking.Booking{
		ID:                 domainbooking.BookingID(rec.ID),
		TenantID:           rec.TenantID,
		PropertyID:         domainproperty.PropertyID(rec.PropertyID),
		GuestID:            guestID,
		Range:              span,
		Status:             domainbooking.Status(rec.Status),
		QuotedTotalCents:   rec.QuotedTotalCents,
		ConfirmedAt:        rec.ConfirmedAt,
		CancelledAt:        rec.CancelledAt,
		CancelledBy:        rec.CancelledBy,
		CancellationReason: rec.CancellationReason,
		InternalNotes:      rec.InternalNotes,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}, nil
}

type rangeRepo struct {
	tx *gorm.DB
}

func (r *rangeRepo) Insert(ctx context.Context, rng *domaininventory.Range) error {
	rec := rangeRecord{
		ID:         rng.ID,
		TenantID:   rng.TenantID,
		PropertyID: string(rng.PropertyID),
		Kind:       string(rng.Kind),
		SourceID:   rng.SourceID,
		StartDate:  rng.Span.Start,
		EndDate:    rng.Span.End,
		CreatedAt:  time.Now().UTC(),
	}
	err := r.tx.WithContext(ctx).Create(&rec).Error
	return translate(err, string(rng.PropertyID))
}

func (r *rangeRepo) DeleteBySource(ctx context.Context, kind domaininventory.RangeKind, sourceID string) error {
	err := r.tx.WithContext(ctx).
		Where("kind = ? AND source_id = ?", string(kind), sourceID).
		Delete(&rangeRecord{}).Error
	return translate(err, sourceID)
}

func (r *rangeRepo) Overlapping(ctx context.Context, id domainproperty.PropertyID, span daterange.DateRange) ([]domaininventory.Range, error) {
	var recs []rangeRecord
	err := r.tx.WithContext(ctx).
		Where("property_id = ? AND start_date < ? AND end_date > ?",
			string(id), span.End, span.Start).
		Order("start_date").
		Find(&recs).Error
	if err != nil {
		return nil, translate(err, string(id))
	}
	out := make([]domaininventory.Range, 0, len(recs))
	for _, rec := range recs {
		rng, err := rangeFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, rng)
	}
	return out, nil
}

func (r *rangeRepo) BySource(ctx context.Context, kind domaininventory.RangeKind, sourceID string) (*domaininventory.Range, error) {
	var rec rangeRecord
	err := r.tx.WithContext(ctx).
		Where("kind = ? AND source_id = ?", string(kind), sourceID).
		First(&rec).Error
	if err != nil {
		return nil, translate(err, sourceID)
	}
	rng, err := rangeFromRecord(rec)
	if err != nil {
		return nil, err
	}
	return &rng, nil
}

func rangeFromRecord(rec rangeRecord) (domaininventory.Range, error) {
	span, err := daterange.New(rec.StartDate, rec.EndDate)
	if err != nil {
		return domaininventory.Range{}, err
	}
	return domaininventory.Range{
		ID:         rec.ID,
		TenantID:   rec.TenantID,
		PropertyID: domainproperty.PropertyID(rec.PropertyID),
		Kind:       domaininventory.RangeKind(rec.Kind),
		Span:       span,
		SourceID:   rec.SourceID,
	}, nil
}

type blockRepo struct {
	tx *gorm.DB
}

func (r *blockRepo) ByID(ctx context.Context, tenantID string, id domaininventory.BlockID) (*domaininventory.AvailabilityBlock, error) {
	var rec blockRecord
	err := r.tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, string(id)).
		First(&rec).Error
	if err != nil {
		return nil, translate(err, string(id))
	}
	span, err := daterange.New(rec.StartDate, rec.EndDate)
	if err != nil {
		return nil, err
	}
	return &domaininventory.AvailabilityBlock{
		ID:         domaininventory.BlockID(rec.ID),
		TenantID:   rec.TenantID,
		PropertyID: domainproperty.PropertyID(rec.PropertyID),
		Span:       span,
		Reason:     rec.Reason,
		Active:     rec.Active,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

func (r *blockRepo) Save(ctx context.Context, b *domaininventory.AvailabilityBlock) error {
	rec := blockRecord{
		ID:         string(b.ID),
		TenantID:   b.TenantID,
		PropertyID: string(b.PropertyID),
		StartDate:  b.Span.Start,
		EndDate:    b.Span.End,
		Reason:     b.Reason,
		Active:     b.Active,
		CreatedAt:  b.CreatedAt,
	}
	err := r.tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&rec).Error
	return translate(err, string(b.ID))
}

func (r *blockRepo) Delete(ctx context.Context, tenantID string, id domaininventory.BlockID) error {
	err := r.tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, string(id)).
		Delete(&blockRecord{}).Error
	return translate(err, string(id))
}
