// Copyright 2025 The Hostwatch Authors, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const stateRowID = 1

// TransferState is the single row holding both slots. A nil column is a slot
// that was never written.
type TransferState struct {
	ID         uint `gorm:"primaryKey"`
	TotalBytes *float64
	MonthKey   *string `gorm:"size:7"`
	UpdatedAt  time.Time
}

func (TransferState) TableName() string {
	return "transfer_states"
}

type SQLStore struct {
	db *gorm.DB
}

var _ StateWriter = (*SQLStore)(nil)

// NewSQLStore opens (or creates) a sqlite database at path.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&TransferState{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) ReadTransferTotal(ctx context.Context) (float64, bool, error) {
	row, ok, err := s.load(ctx)
	if !ok || err != nil || row.TotalBytes == nil {
		return 0, false, err
	}
	if *row.TotalBytes < 0 {
		return 0, false, fmt.Errorf("store: transfer total out of range: %v", *row.TotalBytes)
	}
	return *row.TotalBytes, true, nil
}

func (s *SQLStore) WriteTransferTotal(ctx context.Context, total float64) error {
	return s.upsert(s.db.WithContext(ctx), TransferState{ID: stateRowID, TotalBytes: &total}, "total_bytes")
}

func (s *SQLStore) ReadMonthKey(ctx context.Context) (string, bool, error) {
	row, ok, err := s.load(ctx)
	if !ok || err != nil || row.MonthKey == nil {
		return "", false, err
	}
	month, err := parseMonth(*row.MonthKey)
	return month, err == nil, err
}

func (s *SQLStore) WriteMonthKey(ctx context.Context, month string) error {
	return s.upsert(s.db.WithContext(ctx), TransferState{ID: stateRowID, MonthKey: &month}, "month_key")
}

// WriteState replaces both columns inside one transaction.
func (s *SQLStore) WriteState(ctx context.Context, total float64, month string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.upsert(tx, TransferState{ID: stateRowID, TotalBytes: &total, MonthKey: &month}, "total_bytes", "month_key")
	})
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) load(ctx context.Context) (TransferState, bool, error) {
	var row TransferState
	err := s.db.WithContext(ctx).First(&row, stateRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, false, nil
	}
	if err != nil {
		return row, false, fmt.Errorf("store: load transfer state: %w", err)
	}
	return row, true, nil
}

func (s *SQLStore) upsert(db *gorm.DB, row TransferState, columns ...string) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store: upsert %v: %w", columns, err)
	}
	return nil
}
