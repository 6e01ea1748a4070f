package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/events"
	"github.com/yeremiapane/tableflow/models"
	"github.com/yeremiapane/tableflow/router"
	"github.com/yeremiapane/tableflow/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

// TestTableLifecycleEndToEnd menguji flow utama satu kunjungan:
// 1. Login staff -> token
// 2. Staff membuat meja -> QR token
// 3. Customer scan QR -> sesi dimulai, meja OCCUPIED
// 4. Customer membuat dua order -> keduanya melipat ke satu bill
// 5. Staff membayar bill -> sesi tertutup, meja AVAILABLE lagi
func TestTableLifecycleEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupLifecycleDB()
	r := router.SetupRouter(db, events.NewHub())

	token := loginLifecycleTest(t, r)

	qrToken := createTableTest(t, r, token)

	sessionID := startSessionTest(t, r, db, qrToken)

	placeOrdersTest(t, r, sessionID)

	billID := checkBillTest(t, r, db, token)

	payBillTest(t, r, db, token, billID, sessionID)
}

// setupLifecycleDB -> migrasi model di SQLite in-memory + seed staff & menu
func setupLifecycleDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:lifecycle_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Session{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Bill{},
	)
	if err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	db.Create(&models.User{
		Name:     "Test Staff",
		Email:    "staff@example.com",
		Password: string(hashedPassword),
		Role:     "staff",
	})

	db.Create(&models.MenuItem{Name: "Pad Thai", Price: 12.99, FoodType: "main", IsAvailable: true})
	db.Create(&models.MenuItem{Name: "Mango Sticky Rice", Price: 8.99, FoodType: "dessert", IsAvailable: true})

	return db
}

func performJSON(t *testing.T, r *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func dataField(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response data must be an object: %s", w.Body.String())
	return data
}

func loginLifecycleTest(t *testing.T, r *gin.Engine) string {
	w := performJSON(t, r, "POST", "/login", "", map[string]interface{}{
		"email":    "staff@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := dataField(t, w)
	token, ok := data["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func createTableTest(t *testing.T, r *gin.Engine, token string) string {
	w := performJSON(t, r, "POST", "/admin/tables", token, map[string]interface{}{
		"table_number": 1,
		"capacity":     4,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := dataField(t, w)
	qrToken, ok := data["qr_code_token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, qrToken)
	assert.Equal(t, models.TableAvailable, data["status"])
	return qrToken
}

func startSessionTest(t *testing.T, r *gin.Engine, db *gorm.DB, qrToken string) string {
	w := performJSON(t, r, "POST", "/sessions", "", map[string]interface{}{
		"qr_code_token": qrToken,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := dataField(t, w)
	require.Equal(t, true, data["is_new_session"])
	session := data["session"].(map[string]interface{})
	sessionID := session["id"].(string)
	require.NotEmpty(t, sessionID)

	// Meja langsung OCCUPIED setelah scan
	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableOccupied, table.Status)

	return sessionID
}

func placeOrdersTest(t *testing.T, r *gin.Engine, sessionID string) {
	w := performJSON(t, r, "POST", "/orders", "", map[string]interface{}{
		"session_id": sessionID,
		"items": []map[string]interface{}{
			{"menu_item_id": 1, "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = performJSON(t, r, "POST", "/orders", "", map[string]interface{}{
		"session_id": sessionID,
		"items": []map[string]interface{}{
			{"menu_item_id": 2, "quantity": 1, "note": "less sweet"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func checkBillTest(t *testing.T, r *gin.Engine, db *gorm.DB, token string) uint {
	// Kedua order harus terlipat ke satu bill terbuka
	var bills []models.Bill
	require.NoError(t, db.Find(&bills).Error)
	require.Len(t, bills, 1)
	assert.False(t, bills[0].IsPaid)
	assert.InDelta(t, 34.97, bills[0].TotalAmount, 0.001)

	w := performJSON(t, r, "GET", fmt.Sprintf("/admin/bills/%d", bills[0].ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	orders := data["orders"].([]interface{})
	assert.Len(t, orders, 2)

	return bills[0].ID
}

func payBillTest(t *testing.T, r *gin.Engine, db *gorm.DB, token string, billID uint, sessionID string) {
	w := performJSON(t, r, "PATCH", fmt.Sprintf("/admin/bills/%d/pay", billID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, true, data["is_paid"])

	// Pembayaran menutup sesi dan membebaskan meja
	var session models.Session
	require.NoError(t, db.First(&session, "id = ?", sessionID).Error)
	assert.NotNil(t, session.DeletedAt)

	var table models.Table
	require.NoError(t, db.First(&table, 1).Error)
	assert.Equal(t, models.TableAvailable, table.Status)

	// Sesi yang sudah tertutup tidak valid lagi untuk customer
	w = performJSON(t, r, "GET", "/sessions/"+sessionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	validData := dataField(t, w)
	assert.Equal(t, false, validData["valid"])
}
