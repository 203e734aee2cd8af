package gormstore

import "time"

type propertyRecord struct {
	ID        string `gorm:"primaryKey"`
	TenantID  string `gorm:"index:idx_properties_tenant;not null"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (propertyRecord) TableName() string { return "properties" }

type guestRecord struct {
	ID        string `gorm:"primaryKey"`
	TenantID  string `gorm:"uniqueIndex:uniq_guests_tenant_email;not null"`
	Email     string `gorm:"uniqueIndex:uniq_guests_tenant_email;not null"`
	Name      string
	CreatedAt time.Time
}

func (guestRecord) TableName() string { return "guests" }

type bookingRecord struct {
	ID                 string       `gorm:"primaryKey"`
	TenantID           string       `gorm:"index:idx_bookings_tenant;not null"`
	PropertyID         string       `gorm:"index:idx_bookings_property;not null"`
	GuestID            *string      `gorm:"index"`
	Guest              *guestRecord `gorm:"foreignKey:GuestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	CheckIn            time.Time    `gorm:"not null"`
	CheckOut           time.Time    `gorm:"not null"`
	Status             string       `gorm:"not null;index"`
	QuotedTotalCents   int64
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
	CancelledBy        string
	CancellationReason string
	InternalNotes      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (bookingRecord) TableName() string { return "bookings" }

// rangeRecord rows back the range-exclusion constraint. On Postgres the
// schema carries
//
//	EXCLUDE USING gist (property_id WITH =, daterange(start_date, end_date) WITH &&)
//
// restricted to these rows, which only ever hold occupying intervals.
type rangeRecord struct {
	ID         string    `gorm:"primaryKey"`
	TenantID   string    `gorm:"not null"`
	PropertyID string    `gorm:"index:idx_ranges_property;not null"`
	Kind       string    `gorm:"uniqueIndex:uniq_ranges_source;not null"`
	SourceID   string    `gorm:"uniqueIndex:uniq_ranges_source;not null"`
	StartDate  time.Time `gorm:"not null"`
	EndDate    time.Time `gorm:"not null"`
	CreatedAt  time.Time
}

func (rangeRecord) TableName() string { return "inventory_ranges" }

type blockRecord struct {
	ID         string `gorm:"primaryKey"`
	TenantID   string `gorm:"index:idx_blocks_tenant;not null"`
	PropertyID string `gorm:"index:idx_blocks_property;not null"`
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
	Active     bool `gorm:"not null;default:true"`
	CreatedAt  time.Time
}

func (blockRecord) TableName() string { return "availability_blocks" }

type idempotencyRecord struct {
	ID             uint   `gorm:"primaryKey"`
	TenantID       string `gorm:"uniqueIndex:uniq_idem_tuple;not null"`
	Endpoint       string `gorm:"uniqueIndex:uniq_idem_tuple;not null"`
	Method         string `gorm:"uniqueIndex:uniq_idem_tuple;not null"`
	Key            string `gorm:"uniqueIndex:uniq_idem_tuple;not null"`
	RequestHash    string `gorm:"size:64;not null"`
	ResponseStatus int
	ResponseBody   []byte
	ExpiresAt      time.Time `gorm:"index;not null"`
	CreatedAt      time.Time
}

func (idempotencyRecord) TableName() string { return "idempotency_records" }

type outboxRecord struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Aggregate     string
	Payload       []byte
	Headers       []byte
	OccurredAt    time.Time
	Status        string `gorm:"index;not null;default:pending"`
	Attempts      int
	NextAttemptAt *time.Time
	ClaimedBy     string
	LastError     string
	SentAt        *time.Time
	CreatedAt     time.Time
}

func (outboxRecord) TableName() string { return "outbox_events" }
