package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/services"
	"github.com/yeremiapane/tableflow/utils"
)

// respondServiceError memetakan taksonomi error service ke status HTTP.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrBillAlreadyPaid):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrItemsRequired),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrTableOrSessionRequired),
		errors.Is(err, services.ErrNoOrdersToBill),
		errors.Is(err, services.ErrInvalidTableStatus):
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

// ErrNoPermission adalah error custom untuk akses yang ditolak
var ErrNoPermission = &CustomError{"You do not have permission"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}
