package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/tableflow/models"
	"github.com/yeremiapane/tableflow/utils"
)

// Nama event yang disiarkan ke client
const (
	EventSessionStarted     = "session_started"
	EventSessionEnded       = "session_ended"
	EventOrderCreated       = "order_created"
	EventOrderStatusUpdated = "order_status_updated"
	EventBillCreated        = "bill_created"
	EventBillUpdated        = "bill_updated"
	EventBillPaid           = "bill_paid"
	EventTableStatusChanged = "table_status_changed"
)

// AudienceStaff adalah room untuk semua koneksi staff.
const AudienceStaff = "staff"

// TableAudience -> nama room untuk koneksi yang terikat satu meja.
func TableAudience(tableID uint) string {
	return fmt.Sprintf("table:%d", tableID)
}

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung semua koneksi websocket beserta audience yang diikutinya.
// Dibuat sekali di startup dan di-inject ke services - bukan singleton
// package-level, supaya lifecycle-nya jelas dan gampang dites.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]map[string]bool // conn -> set of audiences
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]map[string]bool),
	}
}

// Register menambahkan koneksi baru tanpa audience.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = make(map[string]bool)
}

// Unregister melepaskan koneksi dan menutupnya.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Join mendaftarkan koneksi ke sebuah audience.
func (h *Hub) Join(conn *websocket.Conn, audience string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[conn]; ok {
		set[audience] = true
	}
}

// Leave mengeluarkan koneksi dari sebuah audience.
func (h *Hub) Leave(conn *websocket.Conn, audience string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[conn]; ok {
		delete(set, audience)
	}
}

// EmitTo menyiarkan event ke satu audience. Best effort: koneksi yang gagal
// ditulis hanya dicatat di log, tidak pernah menggagalkan mutasi pemiliknya.
func (h *Hub) EmitTo(audience, event string, payload map[string]interface{}) {
	h.broadcast(event, payload, func(audiences map[string]bool) bool {
		return audiences[audience]
	})
}

// EmitToAll menyiarkan event ke semua koneksi.
func (h *Hub) EmitToAll(event string, payload map[string]interface{}) {
	h.broadcast(event, payload, func(map[string]bool) bool { return true })
}

func (h *Hub) broadcast(event string, payload map[string]interface{}, match func(map[string]bool) bool) {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	// Setiap payload distempel timestamp saat emisi
	payload["timestamp"] = time.Now().UnixMilli()

	data, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling event %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, audiences := range h.clients {
		if !match(audiences) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to client: %v", event, err)
			continue
		}
	}
}

/*
========================================
 BUSINESS EVENT HELPERS
========================================
*/

func (h *Hub) EmitSessionStarted(session models.Session) {
	payload := map[string]interface{}{
		"session_id": session.ID,
		"table_id":   session.TableID,
	}
	h.EmitTo(AudienceStaff, EventSessionStarted, payload)
	h.EmitTo(TableAudience(session.TableID), EventSessionStarted, payload)
}

func (h *Hub) EmitSessionEnded(session models.Session, reason string) {
	payload := map[string]interface{}{
		"session_id": session.ID,
		"table_id":   session.TableID,
		"reason":     reason,
	}
	h.EmitTo(AudienceStaff, EventSessionEnded, payload)
	h.EmitTo(TableAudience(session.TableID), EventSessionEnded, payload)
}

func (h *Hub) EmitTableStatusChanged(tableID uint, status, reason string) {
	payload := map[string]interface{}{
		"table_id": tableID,
		"status":   status,
		"reason":   reason,
	}
	h.EmitTo(AudienceStaff, EventTableStatusChanged, payload)
	h.EmitTo(TableAudience(tableID), EventTableStatusChanged, payload)
}

func (h *Hub) EmitOrderCreated(order models.Order) {
	h.EmitTo(AudienceStaff, EventOrderCreated, map[string]interface{}{
		"order": order,
	})
	// Customer hanya menerima notice minimal, bukan isi order lengkap
	h.EmitTo(TableAudience(order.TableID), EventOrderCreated, map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
		"message":  "Your order has been received!",
	})
}

func (h *Hub) EmitOrderStatusUpdated(order models.Order) {
	h.EmitTo(AudienceStaff, EventOrderStatusUpdated, map[string]interface{}{
		"order": order,
	})
	h.EmitTo(TableAudience(order.TableID), EventOrderStatusUpdated, map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
		"message":  OrderStatusMessage(order.Status),
	})
}

func (h *Hub) EmitBillCreated(bill models.Bill) {
	h.EmitTo(AudienceStaff, EventBillCreated, map[string]interface{}{
		"bill": bill,
	})
	h.EmitTo(TableAudience(bill.TableID), EventBillCreated, map[string]interface{}{
		"bill_id":      bill.ID,
		"total_amount": bill.TotalAmount,
		"message":      "Your bill is ready!",
	})
}

func (h *Hub) EmitBillUpdated(bill models.Bill) {
	h.EmitTo(AudienceStaff, EventBillUpdated, map[string]interface{}{
		"bill": bill,
	})
	h.EmitTo(TableAudience(bill.TableID), EventBillUpdated, map[string]interface{}{
		"bill_id":      bill.ID,
		"total_amount": bill.TotalAmount,
		"message":      "Your bill has been updated.",
	})
}

func (h *Hub) EmitBillPaid(bill models.Bill) {
	h.EmitTo(AudienceStaff, EventBillPaid, map[string]interface{}{
		"bill": bill,
	})
	h.EmitTo(TableAudience(bill.TableID), EventBillPaid, map[string]interface{}{
		"bill_id": bill.ID,
		"message": "Thank you for your payment! Have a great day!",
	})
}

// OrderStatusMessage memetakan status order ke pesan untuk customer.
func OrderStatusMessage(status string) string {
	switch status {
	case models.OrderPending:
		return "Your order is being reviewed..."
	case models.OrderInProgress:
		return "Your order is being prepared!"
	case models.OrderDone:
		return "Your order is ready!"
	case models.OrderCancelled:
		return "Your order has been cancelled."
	default:
		return "Order status updated."
	}
}
