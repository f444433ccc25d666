package inventory

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"tedarik-backend/internal/database"
	"tedarik-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func appendOne(t *testing.T, db *gorm.DB, kind models.InventoryChangeKind, code string, delta int64, date time.Time) {
	t.Helper()
	err := db.Transaction(func(tx *gorm.DB) error {
		return Append(tx, kind, []Movement{{ItemCode: code, ItemName: code, Delta: delta}}, date, "", "test", "")
	})
	require.NoError(t, err)
}

func day(d int) time.Time {
	return time.Date(2025, 12, d, 0, 0, 0, 0, time.UTC)
}

func TestCurrentStockFoldsByDate(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)

	appendOne(t, db, models.InvChangeProduce, "P001", 10, day(1))
	appendOne(t, db, models.InvChangeShip, "P001", -3, day(2))
	appendOne(t, db, models.InvChangeProduce, "P001", 5, day(3))

	// Kesim tarihi dahildir: 2'sindeki stok 3'ündeki üretimi içermez.
	stock, err := ledger.CurrentStock("P001", day(2))
	require.NoError(t, err)
	assert.Equal(t, int64(7), stock)

	stock, err = ledger.CurrentStock("P001", day(3))
	require.NoError(t, err)
	assert.Equal(t, int64(12), stock)

	// Günlükten önceki tarihte stok sıfırdır.
	stock, err = ledger.CurrentStock("P001", day(1).AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Zero(t, stock)
}

func TestShipAndCancelShipRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)

	appendOne(t, db, models.InvChangeProduce, "P001", 10, day(1))
	appendOne(t, db, models.InvChangeShip, "P001", -4, day(2))
	appendOne(t, db, models.InvChangeCancelShip, "P001", 4, day(2))

	stock, err := ledger.CurrentStock("P001", day(2))
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock)
}

func TestAppendSkipsZeroDelta(t *testing.T) {
	db := newTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Append(tx, models.InvChangeAdjust, []Movement{
			{ItemCode: "P001", ItemName: "P001", Delta: 0},
			{ItemCode: "P002", ItemName: "P002", Delta: 3},
		}, day(1), "", "test", "sayım")
	})
	require.NoError(t, err)

	var count int64
	db.Model(&models.InventoryLogEntry{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAppendRecordsSnapshot(t *testing.T) {
	db := newTestDB(t)

	appendOne(t, db, models.InvChangeProduce, "P001", 10, day(1))
	appendOne(t, db, models.InvChangeShip, "P001", -3, day(1))

	var entries []models.InventoryLogEntry
	require.NoError(t, db.Order("id").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(10), entries[0].ResultingStock)
	assert.Equal(t, int64(7), entries[1].ResultingStock)
	assert.NotEmpty(t, entries[0].IdempotencyKey)
	assert.NotEqual(t, entries[0].IdempotencyKey, entries[1].IdempotencyKey)
}

func TestIdempotencyKeyRejectsDuplicate(t *testing.T) {
	db := newTestDB(t)

	entry := models.InventoryLogEntry{
		EffectiveDate:  day(1),
		ItemCode:       "P001",
		Kind:           models.InvChangeProduce,
		QuantityDelta:  5,
		ResultingStock: 5,
		IdempotencyKey: "sabit-anahtar",
	}
	require.NoError(t, db.Create(&entry).Error)

	// Aynı anahtarla tekrar deneme çift kayıt üretmez, çakışma hatası alır.
	dup := entry
	dup.ID = 0
	require.Error(t, db.Create(&dup).Error)

	var count int64
	db.Model(&models.InventoryLogEntry{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCurrentStockAll(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)

	appendOne(t, db, models.InvChangeProduce, "P001", 10, day(1))
	appendOne(t, db, models.InvChangeProduce, "P002", 4, day(1))
	appendOne(t, db, models.InvChangeShip, "P001", -2, day(2))

	stock, err := ledger.CurrentStockAll(day(2))
	require.NoError(t, err)
	assert.Equal(t, int64(8), stock["P001"])
	assert.Equal(t, int64(4), stock["P002"])
}
