package models

import "time"

// Bill adalah running total satu meja. Invariant: maksimal satu bill dengan
// is_paid=false per meja.
type Bill struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TableID     uint       `gorm:"not null;index" json:"table_id"`
	Table       Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	TotalAmount float64    `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	IsPaid      bool       `gorm:"not null;default:false;index" json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Orders      []Order    `gorm:"foreignKey:BillID" json:"orders,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}
