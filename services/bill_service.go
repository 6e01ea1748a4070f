package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/events"
	"github.com/yeremiapane/tableflow/models"
	"github.com/yeremiapane/tableflow/utils"
)

// BillService memegang running total per meja.
// Invariant: maksimal satu bill dengan is_paid=false per meja - pengecekan
// existing bill dan create/update-nya selalu satu transaksi di bawah lock
// meja, supaya dua order bersamaan tidak sama-sama memutuskan "belum ada
// bill, buat baru".
type BillService struct {
	db  *gorm.DB
	hub *events.Hub
}

func NewBillService(db *gorm.DB, hub *events.Hub) *BillService {
	return &BillService{db: db, hub: hub}
}

// CreateForTable membuat bill manual dari semua order meja yang belum
// terikat bill (jalur batch, dipakai saat belum ada open bill sama sekali).
func (s *BillService) CreateForTable(tableID uint) (*models.Bill, error) {
	defer lockTable(tableID)()

	var bill models.Bill
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var orders []models.Order
		if err := tx.Preload("OrderItems").
			Where("table_id = ? AND bill_id IS NULL AND status <> ?", tableID, models.OrderCancelled).
			Find(&orders).Error; err != nil {
			return err
		}
		if len(orders) == 0 {
			return ErrNoOrdersToBill
		}

		var total float64
		ids := make([]uint, 0, len(orders))
		for i := range orders {
			total += orders[i].Total()
			ids = append(ids, orders[i].ID)
		}

		bill = models.Bill{TableID: tableID, TotalAmount: total}
		if err := tx.Create(&bill).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).Where("id IN ?", ids).
			Update("bill_id", bill.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.hub.EmitBillCreated(bill)
	utils.InfoLogger.Printf("Bill %d created for table %d, total %.2f", bill.ID, tableID, bill.TotalAmount)
	return &bill, nil
}

// CreateOrUpdateForOrder melipat satu order ke open bill mejanya, atau
// membuat bill baru jika belum ada. Jalur otomatis setiap order diterima.
func (s *BillService) CreateOrUpdateForOrder(orderID uint) (*models.Bill, error) {
	var order models.Order
	if err := s.db.Preload("OrderItems").First(&order, orderID).Error; err != nil {
		return nil, err
	}

	defer lockTable(order.TableID)()

	var bill models.Bill
	var created bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderTotal := order.Total()

		findErr := tx.Where("table_id = ? AND is_paid = ?", order.TableID, false).
			First(&bill).Error
		switch {
		case findErr == nil:
			bill.TotalAmount += orderTotal
			if err := tx.Save(&bill).Error; err != nil {
				return err
			}
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			created = true
			bill = models.Bill{TableID: order.TableID, TotalAmount: orderTotal}
			if err := tx.Create(&bill).Error; err != nil {
				return err
			}
		default:
			return findErr
		}

		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("bill_id", bill.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.hub.EmitBillCreated(bill)
	} else {
		s.hub.EmitBillUpdated(bill)
	}
	return &bill, nil
}

// Pay menandai bill lunas, menutup semua sesi aktif mejanya, dan
// membebaskan meja - semuanya dalam satu transaksi. Check-and-set status
// meja di sini aman karena sesi-sesinya baru saja ditutup di transaksi
// yang sama, jadi tidak ada sesi baru yang bisa menyelip.
func (s *BillService) Pay(billID uint) (*models.Bill, error) {
	var bill models.Bill
	if err := s.db.First(&bill, billID).Error; err != nil {
		return nil, err
	}
	if bill.IsPaid {
		return nil, ErrBillAlreadyPaid
	}

	defer lockTable(bill.TableID)()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Re-check di dalam transaksi untuk pay yang balapan
		if err := tx.First(&bill, billID).Error; err != nil {
			return err
		}
		if bill.IsPaid {
			return ErrBillAlreadyPaid
		}

		now := time.Now()
		bill.IsPaid = true
		bill.PaidAt = &now
		if err := tx.Save(&bill).Error; err != nil {
			return err
		}

		var active []models.Session
		if err := tx.Where("table_id = ? AND deleted_at IS NULL", bill.TableID).
			Find(&active).Error; err != nil {
			return err
		}
		if len(active) > 0 {
			if err := tx.Model(&models.Session{}).
				Where("table_id = ? AND deleted_at IS NULL", bill.TableID).
				Update("deleted_at", now).Error; err != nil {
				return err
			}
			for _, session := range active {
				s.hub.EmitSessionEnded(session, "bill paid")
			}
		}

		var table models.Table
		if err := tx.First(&table, bill.TableID).Error; err != nil {
			return err
		}
		if table.Status == models.TableOccupied {
			table.Status = models.TableAvailable
			if err := tx.Save(&table).Error; err != nil {
				return err
			}
			s.hub.EmitTableStatusChanged(bill.TableID, models.TableAvailable, "bill paid and sessions closed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.EmitBillPaid(bill)
	utils.InfoLogger.Printf("Bill %d paid, table %d released", bill.ID, bill.TableID)
	return &bill, nil
}

func (s *BillService) Get(id uint) (*models.Bill, error) {
	var bill models.Bill
	err := s.db.Preload("Orders").Preload("Orders.OrderItems").
		Preload("Orders.OrderItems.MenuItem").
		First(&bill, id).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (s *BillService) GetAll() ([]models.Bill, error) {
	var bills []models.Bill
	err := s.db.Preload("Orders").Preload("Orders.OrderItems").
		Preload("Table").
		Order("created_at DESC").Find(&bills).Error
	return bills, err
}
