package gormstore

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects through the given dialector with the settings every
// store in this package assumes. SQLite callers should pin the pool to
// a single connection afterwards; shared-cache in-memory databases
// misbehave with more.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate creates the schema. On Postgres it additionally installs the
// btree_gist extension and the range-exclusion constraint over
// inventory_ranges, which is the source of truth for overlap safety.
// SQLite has no equivalent constraint; there the serialized pre-check
// inside the property lock carries correctness, which is acceptable for
// tests but not for production traffic.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&propertyRecord{},
		&guestRecord{},
		&bookingRecord{},
		&rangeRecord{},
		&blockRecord{},
		&idempotencyRecord{},
		&outboxRecord{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("install btree_gist: %w", err)
	}
	ddl := `
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint WHERE conname = 'inventory_ranges_no_overlap'
    ) THEN
        ALTER TABLE inventory_ranges
            ADD CONSTRAINT inventory_ranges_no_overlap
            EXCLUDE USING gist (
                property_id WITH =,
                daterange(start_date::date, end_date::date) WITH &&
            );
    END IF;
END
$$;`
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("install range exclusion constraint: %w", err)
	}
	return nil
}
