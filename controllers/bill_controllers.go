package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/tableflow/services"
	"github.com/yeremiapane/tableflow/utils"
)

type BillController struct {
	Bills *services.BillService
}

func NewBillController(bills *services.BillService) *BillController {
	return &BillController{Bills: bills}
}

// CreateBill -> staff membuat bill dari semua order meja yang belum tertagih
func (bc *BillController) CreateBill(c *gin.Context) {
	var req struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	bill, err := bc.Bills.CreateForTable(req.TableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bill created", bill)
}

// PayBill -> tandai lunas; menutup sesi aktif meja dan membebaskannya
func (bc *BillController) PayBill(c *gin.Context) {
	id, ok := parseIDParam(c, "bill_id")
	if !ok {
		return
	}

	bill, err := bc.Bills.Pay(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill paid", bill)
}

// GetAllBills -> list bill, terbaru duluan
func (bc *BillController) GetAllBills(c *gin.Context) {
	bills, err := bc.Bills.GetAll()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bills", bills)
}

// GetBillByID -> detail 1 bill beserta order-ordernya
func (bc *BillController) GetBillByID(c *gin.Context) {
	id, ok := parseIDParam(c, "bill_id")
	if !ok {
		return
	}
	bill, err := bc.Bills.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill detail", bill)
}
