package model

import "gorm.io/datatypes"

// PositionEventModel is one row per position lifecycle event (opened or
// closed), the durable audit trail behind the in-memory ledger.
type PositionEventModel struct {
	ID           int64          `gorm:"column:id;primaryKey"`
	EventType    string         `gorm:"column:event_type;index"`
	InstrumentID string         `gorm:"column:instrument_id;index"`
	Direction    string         `gorm:"column:direction"`
	SizeUSD      float64        `gorm:"column:size_usd"`
	EntryPrice   float64        `gorm:"column:entry_price"`
	MarkPrice    float64        `gorm:"column:mark_price"`
	PnlUSD       float64        `gorm:"column:pnl_usd"`
	PnlPercent   float64        `gorm:"column:pnl_percent"`
	OrderID      string         `gorm:"column:order_id"`
	Reason       string         `gorm:"column:reason"`
	Details      datatypes.JSON `gorm:"column:details"`
	OccurredAt   int64          `gorm:"column:occurred_at;index"`
	CreatedAt    int64          `gorm:"column:created_at"`
}

func (PositionEventModel) TableName() string { return "position_events" }
