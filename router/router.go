package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/controllers"
	"github.com/yeremiapane/tableflow/events"
	"github.com/yeremiapane/tableflow/middlewares"
	"github.com/yeremiapane/tableflow/services"
)

func SetupRouter(db *gorm.DB, hub *events.Hub) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Composition root: services saling terhubung lewat interface sempit,
	// bukan konstruksi silang langsung
	tableSvc := services.NewTableService(db, hub)
	sessionSvc := services.NewSessionService(db, hub, tableSvc)
	billSvc := services.NewBillService(db, hub)
	orderSvc := services.NewOrderService(db, hub, billSvc)

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(tableSvc)
	sessionCtrl := controllers.NewSessionController(sessionSvc)
	orderCtrl := controllers.NewOrderController(orderSvc)
	billCtrl := controllers.NewBillController(billSvc)
	menuCtrl := controllers.NewMenuController(db)
	eventCtrl := controllers.NewEventController(hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Endpoint WebSocket (staff kirim token query param untuk join staff room)
	r.GET("/ws", eventCtrl.Handler)

	// -- CUSTOMER (Tanpa Auth) --
	r.GET("/menu", menuCtrl.GetAllMenuItems)
	r.GET("/menu/:menu_id", menuCtrl.GetMenuItemByID)

	// Scan QR -> mulai / lanjutkan sesi
	r.POST("/sessions", sessionCtrl.CreateSession)
	r.GET("/sessions/:session_id", sessionCtrl.ValidateSession)
	r.POST("/sessions/:session_id/checkout", sessionCtrl.CheckoutSession)
	r.GET("/sessions/:session_id/orders", sessionCtrl.GetSessionOrders)

	// Membuat order (customer tidak perlu login)
	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)

	// Payload QR untuk meja
	r.GET("/tables/:table_id/qr", tableCtrl.GetTableQR)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	auth.PATCH("/tables/:table_id/status", tableCtrl.UpdateTableStatus)
	auth.POST("/tables/:table_id/cleanup", tableCtrl.CleanupTableSessions)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

	// SESSIONS (?deleted=true untuk arsip sesi tertutup)
	auth.GET("/sessions", sessionCtrl.GetAllSessions)
	auth.GET("/sessions/:session_id", sessionCtrl.GetSessionByID)
	auth.DELETE("/sessions/:session_id", sessionCtrl.CloseSession)

	// ORDERS (antrian dapur di bawah /kitchen agar tidak bentrok dgn :order_id)
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/kitchen/queue", orderCtrl.GetOrderQueue)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)

	// BILLS
	auth.POST("/bills", billCtrl.CreateBill)
	auth.GET("/bills", billCtrl.GetAllBills)
	auth.GET("/bills/:bill_id", billCtrl.GetBillByID)
	auth.PATCH("/bills/:bill_id/pay", billCtrl.PayBill)

	// MENU (mutasi khusus staff/admin)
	auth.POST("/menu", menuCtrl.CreateMenuItem)
	auth.PATCH("/menu/:menu_id", menuCtrl.UpdateMenuItem)
	auth.DELETE("/menu/:menu_id", menuCtrl.DeleteMenuItem)

	return r
}
