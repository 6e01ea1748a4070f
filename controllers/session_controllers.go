package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/tableflow/services"
	"github.com/yeremiapane/tableflow/utils"
)

type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// CreateSession -> customer scan QR; reuse sesi aktif atau buat baru
func (sc *SessionController) CreateSession(c *gin.Context) {
	var req struct {
		QRCodeToken string `json:"qr_code_token" binding:"required"`
		Meta        string `json:"meta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Sessions.GetOrCreate(req.QRCodeToken, req.Meta)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	code := http.StatusOK
	message := "Session resumed"
	if result.IsNewSession {
		code = http.StatusCreated
		message = "Session started"
	}
	utils.RespondJSON(c, code, message, result)
}

// ValidateSession -> cek apakah session id masih berlaku.
// Sesi yang ketahuan expired di sini langsung ditutup.
func (sc *SessionController) ValidateSession(c *gin.Context) {
	session, valid, err := sc.Sessions.Validate(c.Param("session_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !valid {
		utils.RespondJSON(c, http.StatusOK, "Session invalid", gin.H{"valid": false})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session valid", gin.H{
		"valid":      true,
		"session":    session,
		"expires_at": session.ExpiresAt(),
		"table":      session.Table,
	})
}

// CheckoutSession -> tutup sesi dan kembalikan ringkasan order non-cancelled
func (sc *SessionController) CheckoutSession(c *gin.Context) {
	result, err := sc.Sessions.Checkout(c.Param("session_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session checked out", result)
}

// CloseSession -> staff menutup sesi secara manual
func (sc *SessionController) CloseSession(c *gin.Context) {
	session, err := sc.Sessions.Close(c.Param("session_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session closed", session)
}

// GetSessionOrders -> order milik satu sesi
func (sc *SessionController) GetSessionOrders(c *gin.Context) {
	orders, err := sc.Sessions.GetOrders(c.Param("session_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session orders", orders)
}

// GetAllSessions -> list sesi.
// ?include_deleted=true menyertakan arsip, ?deleted=true hanya arsip.
func (sc *SessionController) GetAllSessions(c *gin.Context) {
	if c.Query("deleted") == "true" {
		sc.GetDeletedSessions(c)
		return
	}
	includeDeleted := c.Query("include_deleted") == "true"
	sessions, err := sc.Sessions.List(includeDeleted)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of sessions", sessions)
}

// GetDeletedSessions -> sesi yang sudah ditutup
func (sc *SessionController) GetDeletedSessions(c *gin.Context) {
	sessions, err := sc.Sessions.ListDeleted()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of deleted sessions", sessions)
}

// GetSessionByID -> detail satu sesi
func (sc *SessionController) GetSessionByID(c *gin.Context) {
	includeDeleted := c.Query("include_deleted") == "true"
	session, err := sc.Sessions.FindOne(c.Param("session_id"), includeDeleted)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", session)
}
