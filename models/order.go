package models

import "time"

// Status order mengikuti alur dapur. Transisi tidak dibatasi - staff bebas
// mengubah status ke nilai manapun.
const (
	OrderPending    = "PENDING"
	OrderInProgress = "IN_PROGRESS"
	OrderDone       = "DONE"
	OrderCancelled  = "CANCELLED"
)

type Order struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	TableID    uint        `gorm:"not null;index" json:"table_id"`
	Table      Table       `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	SessionID  *string     `gorm:"type:varchar(36);index" json:"session_id,omitempty"`
	Session    *Session    `gorm:"foreignKey:SessionID;references:ID" json:"session,omitempty"`
	BillID     *uint       `gorm:"index" json:"bill_id,omitempty"`
	Status     string      `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
	CreatedAt  time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null" json:"updated_at"`
}

// Total menjumlahkan quantity * harga snapshot per item.
func (o *Order) Total() float64 {
	var total float64
	for _, it := range o.OrderItems {
		total += float64(it.Quantity) * it.Price
	}
	return total
}
