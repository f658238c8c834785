package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"polyquant/internal/store/model"
	"polyquant/internal/trader"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Store persists position lifecycle events through gorm.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.PositionEventModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db}, nil
}

// AppendEvent writes one lifecycle row, with the full position snapshot in
// the details column for later inspection.
func (s *Store) AppendEvent(ctx context.Context, evt trader.Event) error {
	details, err := json.Marshal(evt.Position)
	if err != nil {
		return err
	}
	row := model.PositionEventModel{
		EventType:    string(evt.Type),
		InstrumentID: evt.Position.InstrumentID,
		Direction:    string(evt.Position.Direction),
		SizeUSD:      evt.Position.SizeUSD,
		EntryPrice:   evt.Position.EntryPrice,
		MarkPrice:    evt.Position.MarkPrice,
		PnlUSD:       evt.Position.PnlUSD,
		PnlPercent:   evt.Position.PnlPercent,
		OrderID:      evt.OrderID,
		Reason:       evt.Reason,
		Details:      details,
		OccurredAt:   evt.At.UnixMilli(),
		CreatedAt:    time.Now().UnixMilli(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("appending position event: %w", err)
	}
	return nil
}

// ListEvents returns the newest events first.
func (s *Store) ListEvents(ctx context.Context, instrumentID string, limit int) ([]model.PositionEventModel, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := s.db.WithContext(ctx).Model(&model.PositionEventModel{}).Order("occurred_at DESC, id DESC").Limit(limit)
	if instrumentID != "" {
		query = query.Where("instrument_id = ?", instrumentID)
	}
	var rows []model.PositionEventModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
