package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/models"
	"github.com/yeremiapane/tableflow/utils"
)

// Menu CRUD adalah data access sederhana, cukup langsung lewat gorm.
type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetAllMenuItems -> ?available=true untuk menu yang bisa dipesan saja
func (mc *MenuController) GetAllMenuItems(c *gin.Context) {
	q := mc.DB.Order("name ASC")
	if c.Query("available") == "true" {
		q = q.Where("is_available = ?", true)
	}

	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

func (mc *MenuController) GetMenuItemByID(c *gin.Context) {
	id, ok := parseIDParam(c, "menu_id")
	if !ok {
		return
	}
	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item detail", item)
}

func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Price       float64 `json:"price" binding:"required,min=0"`
		Description string  `json:"description"`
		FoodType    string  `json:"food_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item := models.MenuItem{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		FoodType:    req.FoodType,
		IsAvailable: true,
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	id, ok := parseIDParam(c, "menu_id")
	if !ok {
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	var req struct {
		Name        *string  `json:"name"`
		Price       *float64 `json:"price"`
		Description *string  `json:"description"`
		FoodType    *string  `json:"food_type"`
		IsAvailable *bool    `json:"is_available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.FoodType != nil {
		item.FoodType = *req.FoodType
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	id, ok := parseIDParam(c, "menu_id")
	if !ok {
		return
	}
	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if err := mc.DB.Delete(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"id": id})
}
