package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/models"
)

func TestCreateTableGeneratesUniqueTokens(t *testing.T) {
	svc := setupServices(t)

	seen := map[string]bool{}
	for i := 1; i <= 5; i++ {
		table, err := svc.tables.Create(i, 4)
		require.NoError(t, err)
		assert.NotEmpty(t, table.QRCodeToken)
		assert.False(t, seen[table.QRCodeToken], "token reused")
		seen[table.QRCodeToken] = true
		assert.Equal(t, models.TableAvailable, table.Status)
	}
}

func TestCreateTableDefaultsCapacity(t *testing.T) {
	svc := setupServices(t)

	table, err := svc.tables.Create(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Capacity)
}

func TestOccupyOnSessionStartIsIdempotent(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)

	require.NoError(t, svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.tables.OccupyOnSessionStart(tx, table.ID)
		return err
	}))

	var after models.Table
	require.NoError(t, svc.db.First(&after, table.ID).Error)
	assert.Equal(t, models.TableOccupied, after.Status)
	firstUpdate := after.UpdatedAt

	time.Sleep(10 * time.Millisecond)

	// Panggilan kedua tidak menulis apa pun
	require.NoError(t, svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.tables.OccupyOnSessionStart(tx, table.ID)
		return err
	}))
	require.NoError(t, svc.db.First(&after, table.ID).Error)
	assert.Equal(t, models.TableOccupied, after.Status)
	assert.Equal(t, firstUpdate, after.UpdatedAt)
}

func TestReleaseSkipsWhileSessionsActive(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)

	_, err = svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)

	// Masih ada sesi aktif -> release tidak jalan
	require.NoError(t, svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.tables.ReleaseIfNoActiveSessions(tx, table.ID)
		return err
	}))

	fresh, err := svc.tables.GetByID(table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, fresh.Status)
}

func TestSetStatusManuallyToAvailableClosesSessions(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)

	started, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)

	updated, err := svc.tables.SetStatusManually(table.ID, models.TableAvailable)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, updated.Status)

	// Override manual menutup paksa sesi aktif
	var old models.Session
	require.NoError(t, svc.db.First(&old, "id = ?", started.Session.ID).Error)
	assert.NotNil(t, old.DeletedAt)
}

func TestSetStatusManuallyRejectsUnknownStatus(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)

	_, err = svc.tables.SetStatusManually(table.ID, "RESERVED")
	assert.ErrorIs(t, err, ErrInvalidTableStatus)
}

func TestCleanupSessions(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)

	_, err = svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)

	closed, fresh, err := svc.tables.CleanupSessions(table.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Equal(t, models.TableAvailable, fresh.Status)

	var activeCount int64
	svc.db.Model(&models.Session{}).
		Where("table_id = ? AND deleted_at IS NULL", table.ID).Count(&activeCount)
	assert.Equal(t, int64(0), activeCount)
}

func TestGetDetailReportsActiveSessions(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(1, 4)
	require.NoError(t, err)

	detail, err := svc.tables.GetDetail(table.ID)
	require.NoError(t, err)
	assert.False(t, detail.HasActiveSessions)
	assert.Equal(t, 0, detail.ActiveSessionsCount)

	started, err := svc.sessions.GetOrCreate(table.QRCodeToken, "")
	require.NoError(t, err)

	detail, err = svc.tables.GetDetail(table.ID)
	require.NoError(t, err)
	assert.True(t, detail.HasActiveSessions)
	assert.Equal(t, 1, detail.ActiveSessionsCount)
	require.Len(t, detail.Sessions, 1)
	assert.Equal(t, started.Session.ID, detail.Sessions[0].ID)
}

func TestQRPayload(t *testing.T) {
	svc := setupServices(t)
	table, err := svc.tables.Create(7, 4)
	require.NoError(t, err)

	payload, err := svc.tables.QRPayload(table.ID)
	require.NoError(t, err)
	assert.Equal(t, table.QRCodeToken, payload["qr_code_token"])
	assert.Equal(t, 7, payload["table_number"])
	assert.Contains(t, payload["url"], table.QRCodeToken)
}

func TestTableLookupsNotFound(t *testing.T) {
	svc := setupServices(t)

	_, err := svc.tables.GetByID(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = svc.tables.GetByQRToken("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = svc.tables.GetDetail(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
