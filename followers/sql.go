package followers

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const saveBatchSize = 500

// Follower snapshot in a SQL database (sqlite or postgres), in the "follower_records" table.
type SQLStore struct {
	db *gorm.DB
}

// Wraps an open database, creating or migrating the records table.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrating follower records table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Load(ctx context.Context) ([]*Record, error) {
	var records []*Record
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("loading follower records: %w", err)
	}
	return records, nil
}

func (s *SQLStore) Save(ctx context.Context, records []*Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Record{}).Error; err != nil {
			return fmt.Errorf("clearing follower records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, saveBatchSize).Error; err != nil {
			return fmt.Errorf("saving follower records: %w", err)
		}
		return nil
	})
}
