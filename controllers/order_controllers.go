package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/tableflow/services"
	"github.com/yeremiapane/tableflow/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> customer submit line items untuk meja/sesinya.
// Order dibuat atomik dengan semua item-nya, lalu dilipat ke bill meja.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		TableID   uint                      `json:"table_id"`
		SessionID *string                   `json:"session_id"`
		Items     []services.OrderItemInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.Create(req.TableID, req.SessionID, req.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// UpdateOrderStatus -> staff mengubah status order (tanpa tabel transisi)
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=PENDING IN_PROGRESS DONE CANCELLED"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateStatus(id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// GetOrderQueue -> antrian dapur, PENDING paling lama duluan
func (oc *OrderController) GetOrderQueue(c *gin.Context) {
	orders, err := oc.Orders.GetQueue()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order queue", orders)
}

// GetAllOrders -> list orders beserta items, terbaru duluan
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orders.GetAll()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail 1 order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetOne(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}
