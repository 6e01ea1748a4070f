package services

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/events"
	"github.com/yeremiapane/tableflow/models"
	"github.com/yeremiapane/tableflow/utils"
)

// TableService memegang identitas meja dan transisi status occupancy-nya.
// Status hanya diubah otomatis oleh session/bill lifecycle atau manual oleh
// staff (dengan pembersihan sesi paksa).
type TableService struct {
	db  *gorm.DB
	hub *events.Hub
}

func NewTableService(db *gorm.DB, hub *events.Hub) *TableService {
	return &TableService{db: db, hub: hub}
}

// Create menambahkan meja baru dengan scan token yang digenerate.
func (s *TableService) Create(tableNumber, capacity int) (*models.Table, error) {
	if capacity <= 0 {
		capacity = 2
	}
	table := models.Table{
		TableNumber: tableNumber,
		Capacity:    capacity,
		QRCodeToken: uuid.NewString(),
		Status:      models.TableAvailable,
	}
	if err := s.db.Create(&table).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("New table created: %d (capacity=%d)", table.TableNumber, table.Capacity)
	return &table, nil
}

func (s *TableService) GetAll() ([]models.Table, error) {
	var tables []models.Table
	if err := s.db.Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *TableService) GetByID(id uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.First(&table, id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *TableService) GetByQRToken(token string) (*models.Table, error) {
	var table models.Table
	if err := s.db.Where("qr_code_token = ?", token).First(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// Update mengubah nomor/kapasitas meja, bukan status.
func (s *TableService) Update(id uint, tableNumber, capacity *int) (*models.Table, error) {
	var table models.Table
	if err := s.db.First(&table, id).Error; err != nil {
		return nil, err
	}
	if tableNumber != nil {
		table.TableNumber = *tableNumber
	}
	if capacity != nil {
		table.Capacity = *capacity
	}
	if err := s.db.Save(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *TableService) Delete(id uint) error {
	var table models.Table
	if err := s.db.First(&table, id).Error; err != nil {
		return err
	}
	return s.db.Delete(&table).Error
}

// TableDetail adalah meja beserta info sesi aktifnya untuk tampilan staff.
type TableDetail struct {
	models.Table
	HasActiveSessions   bool             `json:"has_active_sessions"`
	ActiveSessionsCount int              `json:"active_sessions_count"`
	Sessions            []models.Session `json:"sessions"`
}

func (s *TableService) GetDetail(id uint) (*TableDetail, error) {
	var table models.Table
	if err := s.db.First(&table, id).Error; err != nil {
		return nil, err
	}
	var sessions []models.Session
	if err := s.db.Where("table_id = ? AND deleted_at IS NULL", id).
		Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return &TableDetail{
		Table:               table,
		HasActiveSessions:   len(sessions) > 0,
		ActiveSessionsCount: len(sessions),
		Sessions:            sessions,
	}, nil
}

// QRPayload mengembalikan data QR untuk dicetak/ditampilkan di meja.
func (s *TableService) QRPayload(id uint) (map[string]interface{}, error) {
	table, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}
	return map[string]interface{}{
		"table_id":      table.ID,
		"table_number":  table.TableNumber,
		"qr_code_token": table.QRCodeToken,
		"capacity":      table.Capacity,
		"url":           fmt.Sprintf("%s/scan/%s", frontendURL, table.QRCodeToken),
	}, nil
}

// SetStatusManually adalah override status oleh staff. Pindah ke AVAILABLE
// menutup paksa semua sesi aktif meja supaya invariant sesi-vs-status tetap
// konsisten.
func (s *TableService) SetStatusManually(id uint, status string) (*models.Table, error) {
	if status != models.TableAvailable && status != models.TableOccupied {
		return nil, ErrInvalidTableStatus
	}

	var table models.Table
	if err := s.db.First(&table, id).Error; err != nil {
		return nil, err
	}

	defer lockTable(id)()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if status == models.TableAvailable {
			if _, err := s.closeAllSessions(tx, id, "manual table status change"); err != nil {
				return err
			}
		}
		table.Status = status
		return tx.Save(&table).Error
	})
	if err != nil {
		return nil, err
	}

	s.hub.EmitTableStatusChanged(id, status, "manual status change by staff")
	utils.InfoLogger.Printf("Table %d status changed to %s (manual)", table.ID, status)
	return &table, nil
}

// CleanupSessions menutup semua sesi aktif sebuah meja dan membebaskannya.
// Dipakai staff saat state meja tidak sinkron.
func (s *TableService) CleanupSessions(id uint) (int, *models.Table, error) {
	var table models.Table
	if err := s.db.First(&table, id).Error; err != nil {
		return 0, nil, err
	}

	defer lockTable(id)()

	var closed []models.Session
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		closed, err = s.closeAllSessions(tx, id, "manual cleanup")
		if err != nil {
			return err
		}
		table.Status = models.TableAvailable
		return tx.Save(&table).Error
	})
	if err != nil {
		return 0, nil, err
	}

	if len(closed) > 0 {
		s.hub.EmitTableStatusChanged(id, models.TableAvailable, "sessions cleaned up manually")
	}
	return len(closed), &table, nil
}

// closeAllSessions soft-delete semua sesi aktif meja di dalam transaksi
// pemanggil dan menyiarkan session_ended per sesi.
func (s *TableService) closeAllSessions(tx *gorm.DB, tableID uint, reason string) ([]models.Session, error) {
	var active []models.Session
	if err := tx.Where("table_id = ? AND deleted_at IS NULL", tableID).Find(&active).Error; err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return active, nil
	}

	now := time.Now()
	if err := tx.Model(&models.Session{}).
		Where("table_id = ? AND deleted_at IS NULL", tableID).
		Update("deleted_at", now).Error; err != nil {
		return nil, err
	}

	for _, session := range active {
		s.hub.EmitSessionEnded(session, reason)
	}
	return active, nil
}

// OccupyOnSessionStart menandai meja OCCUPIED saat sesi dimulai.
// Hanya transisi AVAILABLE->OCCUPIED; meja yang sudah OCCUPIED tidak
// pernah diturunkan. Berjalan di transaksi pemanggil.
func (s *TableService) OccupyOnSessionStart(tx *gorm.DB, tableID uint) (*models.Table, error) {
	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		return nil, err
	}
	if table.Status != models.TableAvailable {
		return &table, nil
	}

	table.Status = models.TableOccupied
	if err := tx.Save(&table).Error; err != nil {
		return nil, err
	}
	s.hub.EmitTableStatusChanged(tableID, models.TableOccupied, "session started")
	return &table, nil
}

// ReleaseIfNoActiveSessions membebaskan meja hanya jika tidak ada sesi
// aktif tersisa. Harus dijalankan di transaksi yang sama dengan penutupan
// sesi pemicunya supaya sesi baru tidak menyelip di antara check dan release.
func (s *TableService) ReleaseIfNoActiveSessions(tx *gorm.DB, tableID uint) (*models.Table, error) {
	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		return nil, err
	}

	var activeCount int64
	if err := tx.Model(&models.Session{}).
		Where("table_id = ? AND deleted_at IS NULL", tableID).
		Count(&activeCount).Error; err != nil {
		return nil, err
	}

	if activeCount > 0 || table.Status != models.TableOccupied {
		return &table, nil
	}

	table.Status = models.TableAvailable
	if err := tx.Save(&table).Error; err != nil {
		return nil, err
	}
	s.hub.EmitTableStatusChanged(tableID, models.TableAvailable, "all sessions closed")
	return &table, nil
}
