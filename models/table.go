package models

import "time"

// Status meja - hanya dua state, occupancy diatur oleh session/bill lifecycle
const (
	TableAvailable = "AVAILABLE"
	TableOccupied  = "OCCUPIED"
)

type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TableNumber int       `gorm:"uniqueIndex;not null" json:"table_number"`
	Capacity    int       `gorm:"not null;default:2" json:"capacity"`
	QRCodeToken string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"qr_code_token"`
	Status      string    `gorm:"type:varchar(20);not null;default:'AVAILABLE'" json:"status"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
