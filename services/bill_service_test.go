package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/models"
)

func TestOrdersFoldIntoSingleOpenBill(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)
	padThai := seedMenuItem(t, svc.db, "Pad Thai", 12.99)
	mango := seedMenuItem(t, svc.db, "Mango Sticky Rice", 8.99)

	started, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)
	sid := started.Session.ID

	// Order pertama membuat bill
	_, err = svc.orders.Create(0, &sid, []OrderItemInput{
		{MenuItemID: padThai.ID, Quantity: 2},
	})
	require.NoError(t, err)

	// Order kedua melipat ke bill yang sama
	_, err = svc.orders.Create(0, &sid, []OrderItemInput{
		{MenuItemID: mango.ID, Quantity: 1},
	})
	require.NoError(t, err)

	var bills []models.Bill
	require.NoError(t, svc.db.Where("table_id = ?", table.ID).Find(&bills).Error)
	require.Len(t, bills, 1)
	assert.False(t, bills[0].IsPaid)
	assert.InDelta(t, 34.97, bills[0].TotalAmount, 0.001)

	// Kedua order terikat ke bill tersebut
	var linked int64
	svc.db.Model(&models.Order{}).Where("bill_id = ?", bills[0].ID).Count(&linked)
	assert.Equal(t, int64(2), linked)
}

func TestBillPriceSnapshotIgnoresMenuChanges(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)
	padThai := seedMenuItem(t, svc.db, "Pad Thai", 12.99)

	started, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)
	sid := started.Session.ID

	order, err := svc.orders.Create(0, &sid, []OrderItemInput{
		{MenuItemID: padThai.ID, Quantity: 1},
	})
	require.NoError(t, err)

	// Harga menu berubah setelah order dibuat
	require.NoError(t, svc.db.Model(&models.MenuItem{}).
		Where("id = ?", padThai.ID).Update("price", 99.99).Error)

	reloaded, err := svc.orders.GetOne(order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 12.99, reloaded.Total(), 0.001)

	var bill models.Bill
	require.NoError(t, svc.db.Where("table_id = ?", table.ID).First(&bill).Error)
	assert.InDelta(t, 12.99, bill.TotalAmount, 0.001)
}

func TestCreateForTableWithoutOrders(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)

	_, err = svc.bills.CreateForTable(table.ID)
	assert.ErrorIs(t, err, ErrNoOrdersToBill)
}

func TestCreateForTableGathersUnbilledOrders(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)
	padThai := seedMenuItem(t, svc.db, "Pad Thai", 12.99)

	// Order dibuat langsung tanpa jalur billing otomatis
	order := models.Order{
		TableID: table.ID,
		Status:  models.OrderPending,
		OrderItems: []models.OrderItem{
			{MenuItemID: padThai.ID, Quantity: 3, Price: padThai.Price},
		},
	}
	require.NoError(t, svc.db.Create(&order).Error)

	bill, err := svc.bills.CreateForTable(table.ID)
	require.NoError(t, err)
	assert.InDelta(t, 38.97, bill.TotalAmount, 0.001)

	var linked models.Order
	require.NoError(t, svc.db.First(&linked, order.ID).Error)
	require.NotNil(t, linked.BillID)
	assert.Equal(t, bill.ID, *linked.BillID)
}

func TestPayClosesSessionsAndFreesTable(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)
	padThai := seedMenuItem(t, svc.db, "Pad Thai", 12.99)

	started, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)
	sid := started.Session.ID

	_, err = svc.orders.Create(0, &sid, []OrderItemInput{
		{MenuItemID: padThai.ID, Quantity: 1},
	})
	require.NoError(t, err)

	var bill models.Bill
	require.NoError(t, svc.db.Where("table_id = ?", table.ID).First(&bill).Error)

	paid, err := svc.bills.Pay(bill.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)

	// Semua sesi aktif meja ikut tertutup
	var activeCount int64
	svc.db.Model(&models.Session{}).
		Where("table_id = ? AND deleted_at IS NULL", table.ID).Count(&activeCount)
	assert.Equal(t, int64(0), activeCount)

	fresh, err := svc.tables.GetByID(table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, fresh.Status)
}

func TestPayTwiceConflicts(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)
	padThai := seedMenuItem(t, svc.db, "Pad Thai", 12.99)

	started, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)
	sid := started.Session.ID
	_, err = svc.orders.Create(0, &sid, []OrderItemInput{
		{MenuItemID: padThai.ID, Quantity: 1},
	})
	require.NoError(t, err)

	var bill models.Bill
	require.NoError(t, svc.db.Where("table_id = ?", table.ID).First(&bill).Error)

	_, err = svc.bills.Pay(bill.ID)
	require.NoError(t, err)

	_, err = svc.bills.Pay(bill.ID)
	assert.ErrorIs(t, err, ErrBillAlreadyPaid)
}

func TestPayUnknownBill(t *testing.T) {
	svc := setupServices(t)

	_, err := svc.bills.Pay(424242)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestNewBillStartsAfterPreviousPaid(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)
	padThai := seedMenuItem(t, svc.db, "Pad Thai", 12.99)

	started, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)
	sid := started.Session.ID
	_, err = svc.orders.Create(0, &sid, []OrderItemInput{
		{MenuItemID: padThai.ID, Quantity: 1},
	})
	require.NoError(t, err)

	var first models.Bill
	require.NoError(t, svc.db.Where("table_id = ?", table.ID).First(&first).Error)
	_, err = svc.bills.Pay(first.ID)
	require.NoError(t, err)

	// Kunjungan baru -> order baru membuka bill baru, bukan menimpa yang lunas
	restarted, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)
	require.True(t, restarted.IsNewSession)
	sid2 := restarted.Session.ID
	_, err = svc.orders.Create(0, &sid2, []OrderItemInput{
		{MenuItemID: padThai.ID, Quantity: 2},
	})
	require.NoError(t, err)

	var bills []models.Bill
	require.NoError(t, svc.db.Where("table_id = ?", table.ID).
		Order("created_at ASC").Find(&bills).Error)
	require.Len(t, bills, 2)
	assert.True(t, bills[0].IsPaid)
	assert.InDelta(t, 12.99, bills[0].TotalAmount, 0.001)
	assert.False(t, bills[1].IsPaid)
	assert.InDelta(t, 25.98, bills[1].TotalAmount, 0.001)
}

func TestConcurrentOrdersYieldSingleUnpaidBill(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)
	padThai := seedMenuItem(t, svc.db, "Pad Thai", 12.99)

	started, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)
	sid := started.Session.ID

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.orders.Create(0, &sid, []OrderItemInput{
				{MenuItemID: padThai.ID, Quantity: 1},
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, fmt.Sprintf("order %d", i))
	}

	var unpaid []models.Bill
	require.NoError(t, svc.db.Where("table_id = ? AND is_paid = ?", table.ID, false).
		Find(&unpaid).Error)
	require.Len(t, unpaid, 1)
	assert.InDelta(t, float64(n)*12.99, unpaid[0].TotalAmount, 0.001)
}

func TestGetBillWithOrders(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)
	padThai := seedMenuItem(t, svc.db, "Pad Thai", 12.99)

	started, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)
	sid := started.Session.ID
	order, err := svc.orders.Create(0, &sid, []OrderItemInput{
		{MenuItemID: padThai.ID, Quantity: 2},
	})
	require.NoError(t, err)

	var billID uint
	require.NoError(t, svc.db.Model(&models.Order{}).
		Where("id = ?", order.ID).Select("bill_id").Scan(&billID).Error)

	bill, err := svc.bills.Get(billID)
	require.NoError(t, err)
	require.Len(t, bill.Orders, 1)
	require.Len(t, bill.Orders[0].OrderItems, 1)
	assert.Equal(t, "Pad Thai", bill.Orders[0].OrderItems[0].MenuItem.Name)
}
