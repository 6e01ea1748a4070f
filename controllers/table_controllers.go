package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/tableflow/services"
	"github.com/yeremiapane/tableflow/utils"
)

type TableController struct {
	Tables *services.TableService
}

func NewTableController(tables *services.TableService) *TableController {
	return &TableController{Tables: tables}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return uint(id), true
}

// CreateTable -> menambahkan meja baru (scan token digenerate otomatis)
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber int `json:"table_number" binding:"required"`
		Capacity    int `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.Create(req.TableNumber, req.Capacity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> menampilkan seluruh meja
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.GetAll()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID -> detail satu meja beserta info sesi aktifnya
func (tc *TableController) GetTableByID(c *gin.Context) {
	id, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}
	detail, err := tc.Tables.GetDetail(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", detail)
}

// GetTableQR -> payload QR untuk dicetak di meja
func (tc *TableController) GetTableQR(c *gin.Context) {
	id, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}
	qr, err := tc.Tables.QRPayload(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table QR payload", qr)
}

// UpdateTable -> ubah nomor/kapasitas meja
func (tc *TableController) UpdateTable(c *gin.Context) {
	id, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}

	var req struct {
		TableNumber *int `json:"table_number"`
		Capacity    *int `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.Update(id, req.TableNumber, req.Capacity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// UpdateTableStatus -> override status oleh staff; pindah ke AVAILABLE
// menutup paksa sesi aktif meja tersebut
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.SetStatusManually(id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// CleanupTableSessions -> staff menutup semua sesi aktif dan membebaskan meja
func (tc *TableController) CleanupTableSessions(c *gin.Context) {
	id, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}

	closed, table, err := tc.Tables.CleanupSessions(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sessions cleaned up", gin.H{
		"cleaned_sessions": closed,
		"table":            table,
	})
}

// DeleteTable -> menghapus meja
func (tc *TableController) DeleteTable(c *gin.Context) {
	id, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}
	if err := tc.Tables.Delete(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": id})
}
