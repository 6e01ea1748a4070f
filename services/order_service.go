package services

import (
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/events"
	"github.com/yeremiapane/tableflow/models"
	"github.com/yeremiapane/tableflow/utils"
)

// OrderService menerima submission line-item dari customer dan melacak
// status order untuk dapur.
type OrderService struct {
	db    *gorm.DB
	hub   *events.Hub
	bills *BillService
}

func NewOrderService(db *gorm.DB, hub *events.Hub, bills *BillService) *OrderService {
	return &OrderService{db: db, hub: hub, bills: bills}
}

type OrderItemInput struct {
	MenuItemID uint   `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note"`
}

// Create membuat order beserta seluruh item-nya secara atomik, lalu melipat
// totalnya ke open bill meja. Kegagalan billing tidak menggagalkan order
// yang sudah durable - hanya dicatat di log.
func (s *OrderService) Create(tableID uint, sessionID *string, items []OrderItemInput) (*models.Order, error) {
	if tableID == 0 {
		if sessionID == nil || *sessionID == "" {
			return nil, ErrTableOrSessionRequired
		}
		var session models.Session
		if err := s.db.Where("id = ?", *sessionID).First(&session).Error; err != nil {
			return nil, err
		}
		tableID = session.TableID
	}

	if len(items) == 0 {
		return nil, ErrItemsRequired
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			TableID:   tableID,
			SessionID: sessionID,
			Status:    models.OrderPending,
		}

		for _, it := range items {
			var menuItem models.MenuItem
			if err := tx.First(&menuItem, it.MenuItemID).Error; err != nil {
				return err
			}
			order.OrderItems = append(order.OrderItems, models.OrderItem{
				MenuItemID: menuItem.ID,
				Quantity:   it.Quantity,
				Price:      menuItem.Price, // snapshot harga saat agregasi
				Note:       it.Note,
			})
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	// Order sudah durable; billing adalah langkah best-effort setelahnya
	if _, err := s.bills.CreateOrUpdateForOrder(order.ID); err != nil {
		utils.ErrorLogger.Printf("Failed to fold order %d into bill: %v", order.ID, err)
	}

	if err := s.db.Preload("OrderItems").Preload("OrderItems.MenuItem").
		First(&order, order.ID).Error; err != nil {
		return nil, err
	}

	s.hub.EmitOrderCreated(order)
	utils.InfoLogger.Printf("Order %d created at table %d (%d items)", order.ID, tableID, len(items))
	return &order, nil
}

// UpdateStatus menimpa status order tanpa tabel transisi - staff bebas
// memindahkan status ke nilai manapun.
func (s *OrderService) UpdateStatus(orderID uint, status string) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("OrderItems").First(&order, orderID).Error; err != nil {
		return nil, err
	}

	order.Status = status
	if err := s.db.Save(&order).Error; err != nil {
		return nil, err
	}

	s.hub.EmitOrderStatusUpdated(order)
	utils.InfoLogger.Printf("Order %d status changed to %s", order.ID, status)
	return &order, nil
}

// GetQueue mengembalikan antrian dapur: semua order PENDING, paling lama
// duluan. Urutan ini adalah kontrak scheduling untuk staff dapur.
func (s *OrderService) GetQueue() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("OrderItems").Preload("OrderItems.MenuItem").
		Preload("Session").Preload("Table").
		Where("status = ?", models.OrderPending).
		Order("created_at ASC").Find(&orders).Error
	return orders, err
}

func (s *OrderService) GetAll() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("OrderItems").Preload("OrderItems.MenuItem").
		Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (s *OrderService) GetOne(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("OrderItems").Preload("OrderItems.MenuItem").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
