package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/models"
	"github.com/yeremiapane/tableflow/utils"
)

// SessionMonitor menyapu sesi yang sudah lewat TTL secara periodik.
// Ini murni rekonsiliasi tampilan status meja; kebenaran expiry tetap
// dijamin oleh evaluasi lazy di GetOrCreate/Validate.
type SessionMonitor struct {
	DB       *gorm.DB
	Sessions *SessionService
	StopChan chan struct{}
	Interval time.Duration
}

func NewSessionMonitor(db *gorm.DB, sessions *SessionService) *SessionMonitor {
	return &SessionMonitor{
		DB:       db,
		Sessions: sessions,
		StopChan: make(chan struct{}),
		Interval: 5 * time.Minute,
	}
}

func (m *SessionMonitor) Start() {
	go func() {
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.StopChan:
				return
			}
		}
	}()
}

func (m *SessionMonitor) Stop() {
	close(m.StopChan)
}

// sweep menutup semua sesi aktif yang umurnya sudah >= TTL.
func (m *SessionMonitor) sweep() {
	cutoff := time.Now().Add(-models.SessionTTL)

	var stale []models.Session
	if err := m.DB.Where("deleted_at IS NULL AND created_at <= ?", cutoff).
		Find(&stale).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching stale sessions: %v", err)
		return
	}

	for _, session := range stale {
		if err := m.Sessions.expire(session); err != nil {
			utils.ErrorLogger.Printf("Error expiring session %s: %v", session.ID, err)
		}
	}

	if len(stale) > 0 {
		utils.InfoLogger.Printf("Session sweep closed %d stale sessions", len(stale))
	}
}
