package models

import "time"

// SessionTTL adalah masa berlaku sesi customer sejak dibuat.
// Expiry dievaluasi lazy pada saat akses, bukan lewat timer.
const SessionTTL = 6 * time.Hour

// Session merepresentasikan satu kunjungan customer di satu meja.
// DeletedAt nil berarti sesi masih aktif (soft delete manual, bukan
// gorm.DeletedAt, supaya query expiry tetap eksplisit).
type Session struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	TableID   uint       `gorm:"not null;index" json:"table_id"`
	Table     Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	MetaJson  string     `gorm:"type:text" json:"meta_json,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// ExpiresAt menghitung batas akhir masa berlaku sesi.
func (s *Session) ExpiresAt() time.Time {
	return s.CreatedAt.Add(SessionTTL)
}

// IsExpired -> umur sesi sudah mencapai TTL (batas tepat dihitung expired).
func (s *Session) IsExpired(now time.Time) bool {
	return now.Sub(s.CreatedAt) >= SessionTTL
}
