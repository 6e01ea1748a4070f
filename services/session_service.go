package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/events"
	"github.com/yeremiapane/tableflow/models"
	"github.com/yeremiapane/tableflow/utils"
)

// SessionService memegang lifecycle sesi customer per meja.
// Invariant: maksimal satu sesi dengan deleted_at NULL per meja.
// Expiry dievaluasi lazy di GetOrCreate/Validate, tidak ada timer per sesi.
type SessionService struct {
	db     *gorm.DB
	hub    *events.Hub
	tables *TableService
}

func NewSessionService(db *gorm.DB, hub *events.Hub, tables *TableService) *SessionService {
	return &SessionService{db: db, hub: hub, tables: tables}
}

// SessionStart adalah hasil GetOrCreate untuk client yang baru scan QR.
type SessionStart struct {
	Session      models.Session `json:"session"`
	IsNewSession bool           `json:"is_new_session"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

// GetOrCreate me-resolve meja dari scan token lalu mengembalikan sesi
// aktifnya, atau membuat sesi baru jika belum ada / sudah expired.
// Meja selalu dipastikan OCCUPIED, termasuk saat sesi lama di-reuse
// (menutup kasus staff override manual).
func (s *SessionService) GetOrCreate(qrCodeToken, meta string) (*SessionStart, error) {
	table, err := s.tables.GetByQRToken(qrCodeToken)
	if err != nil {
		return nil, err
	}

	defer lockTable(table.ID)()

	var result *SessionStart
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var current models.Session
		findErr := tx.Where("table_id = ? AND deleted_at IS NULL", table.ID).
			Order("created_at DESC").First(&current).Error

		now := time.Now()
		switch {
		case findErr == nil && !current.IsExpired(now):
			// Sesi masih hidup -> reuse
			if _, err := s.tables.OccupyOnSessionStart(tx, table.ID); err != nil {
				return err
			}
			result = &SessionStart{Session: current, IsNewSession: false, ExpiresAt: current.ExpiresAt()}
			return nil

		case findErr == nil:
			// Sesi ada tapi umurnya sudah >= TTL -> tutup dan ganti baru
			if err := tx.Model(&models.Session{}).Where("id = ?", current.ID).
				Update("deleted_at", now).Error; err != nil {
				return err
			}
			s.hub.EmitSessionEnded(current, "expired")

		case !errors.Is(findErr, gorm.ErrRecordNotFound):
			return findErr
		}

		fresh := models.Session{
			ID:       uuid.NewString(),
			TableID:  table.ID,
			MetaJson: meta,
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		if _, err := s.tables.OccupyOnSessionStart(tx, table.ID); err != nil {
			return err
		}

		s.hub.EmitSessionStarted(fresh)
		result = &SessionStart{Session: fresh, IsNewSession: true, ExpiresAt: fresh.ExpiresAt()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.IsNewSession {
		utils.InfoLogger.Printf("Session %s started at table %d", result.Session.ID, table.ID)
	}
	return result, nil
}

// Validate memeriksa apakah sebuah session id masih dapat dipakai.
// Sesi yang ketahuan expired di sini langsung ditutup dan mejanya
// dicoba dibebaskan.
func (s *SessionService) Validate(sessionID string) (*models.Session, bool, error) {
	var session models.Session
	err := s.db.Preload("Table").
		Where("id = ? AND deleted_at IS NULL", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if session.IsExpired(time.Now()) {
		if err := s.expire(session); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	return &session, true, nil
}

// expire menutup sesi yang umurnya sudah mencapai TTL dan mencoba
// membebaskan mejanya dalam satu transaksi.
func (s *SessionService) expire(session models.Session) error {
	defer lockTable(session.TableID)()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Session{}).Where("id = ?", session.ID).
			Update("deleted_at", time.Now()).Error; err != nil {
			return err
		}
		_, err := s.tables.ReleaseIfNoActiveSessions(tx, session.TableID)
		return err
	})
	if err != nil {
		return err
	}

	s.hub.EmitSessionEnded(session, "expired")
	utils.InfoLogger.Printf("Session %s expired at table %d", session.ID, session.TableID)
	return nil
}

// Close menutup sesi secara manual (aksi staff).
func (s *SessionService) Close(sessionID string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	if session.DeletedAt != nil {
		// Sudah tertutup, tidak ada yang perlu diubah
		return &session, nil
	}

	defer lockTable(session.TableID)()

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Session{}).Where("id = ?", session.ID).
			Update("deleted_at", now).Error; err != nil {
			return err
		}
		_, err := s.tables.ReleaseIfNoActiveSessions(tx, session.TableID)
		return err
	})
	if err != nil {
		return nil, err
	}

	session.DeletedAt = &now
	s.hub.EmitSessionEnded(session, "manually closed")
	utils.InfoLogger.Printf("Session %s manually closed", session.ID)
	return &session, nil
}

// CheckoutResult adalah ringkasan settlement sisi sesi. Totalnya dihitung
// ulang dari order sesi ini, sengaja terpisah dari running total BillService.
type CheckoutResult struct {
	Session     models.Session `json:"session"`
	Orders      []models.Order `json:"orders"`
	TotalAmount float64        `json:"total_amount"`
}

// Checkout menutup sesi dan mengembalikan ringkasan order non-cancelled-nya.
func (s *SessionService) Checkout(sessionID string) (*CheckoutResult, error) {
	var session models.Session
	err := s.db.Where("id = ? AND deleted_at IS NULL", sessionID).First(&session).Error
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := s.db.Preload("OrderItems").Preload("OrderItems.MenuItem").
		Where("session_id = ? AND status <> ?", sessionID, models.OrderCancelled).
		Order("created_at ASC").Find(&orders).Error; err != nil {
		return nil, err
	}

	var total float64
	for i := range orders {
		total += orders[i].Total()
	}

	defer lockTable(session.TableID)()

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Session{}).Where("id = ?", session.ID).
			Update("deleted_at", now).Error; err != nil {
			return err
		}
		_, err := s.tables.ReleaseIfNoActiveSessions(tx, session.TableID)
		return err
	})
	if err != nil {
		return nil, err
	}

	session.DeletedAt = &now
	s.hub.EmitSessionEnded(session, "checked out")
	utils.InfoLogger.Printf("Session %s checked out, total %.2f", session.ID, total)

	return &CheckoutResult{Session: session, Orders: orders, TotalAmount: total}, nil
}

// GetOrders mengembalikan order milik satu sesi (urutan pembuatan).
func (s *SessionService) GetOrders(sessionID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("OrderItems").Preload("OrderItems.MenuItem").
		Where("session_id = ?", sessionID).
		Order("created_at ASC").Find(&orders).Error
	return orders, err
}

func (s *SessionService) List(includeDeleted bool) ([]models.Session, error) {
	q := s.db.Preload("Table").Order("created_at DESC")
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	var sessions []models.Session
	err := q.Find(&sessions).Error
	return sessions, err
}

func (s *SessionService) ListDeleted() ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.Preload("Table").Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").Find(&sessions).Error
	return sessions, err
}

func (s *SessionService) FindOne(sessionID string, includeDeleted bool) (*models.Session, error) {
	q := s.db.Preload("Table").Where("id = ?", sessionID)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	var session models.Session
	if err := q.First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}
