package repository

import (
	"context"

	"gorm.io/gorm"
)

// NewGormStore returns a Store backed by a relational database.
func NewGormStore(db *gorm.DB) *Store {
	return NewStore(
		NewPostRepository(db),
		NewFlaggedPostRepository(db),
		NewUserRepository(db),
		func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	)
}
