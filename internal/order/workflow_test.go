package order

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tedarik-backend/internal/database"
	"tedarik-backend/internal/inventory"
	"tedarik-backend/internal/ledger"
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

func newTestWorkflow(db *gorm.DB) *Workflow {
	wf := NewWorkflow(db)
	clock := time.Date(2025, 12, 9, 10, 0, 0, 0, time.UTC)
	wf.Now = func() time.Time {
		now := clock
		clock = clock.Add(time.Second)
		return now
	}
	return wf
}

func seedOutlet(t *testing.T, db *gorm.DB, code string, prepaid, creditLimit int64) models.Outlet {
	t.Helper()
	outlet := models.Outlet{
		Code:         code,
		PasswordHash: "x",
		Role:         models.RoleOutlet,
		Name:         code + " Bayi",
		Active:       true,
	}
	require.NoError(t, db.Create(&outlet).Error)
	rec := models.BalanceRecord{
		OutletID:       outlet.ID,
		OutletName:     outlet.Name,
		PrepaidBalance: prepaid,
		CreditLimit:    creditLimit,
	}
	require.NoError(t, db.Create(&rec).Error)
	return outlet
}

func seedProduct(t *testing.T, db *gorm.DB, code string, price int64, taxClass models.TaxClass) models.Product {
	t.Helper()
	product := models.Product{
		Code:     code,
		Name:     code + " Ürünü",
		Unit:     "adet",
		Price:    price,
		TaxClass: taxClass,
		Active:   true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedStock(t *testing.T, db *gorm.DB, code string, qty int64) {
	t.Helper()
	date := time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC)
	err := db.Transaction(func(tx *gorm.DB) error {
		return inventory.Append(tx, models.InvChangeProduce,
			[]inventory.Movement{{ItemCode: code, ItemName: code, Delta: qty}}, date, "", "test", "")
	})
	require.NoError(t, err)
}

func stockOf(t *testing.T, db *gorm.DB, code string) int64 {
	t.Helper()
	stock, err := inventory.NewLedger(db).CurrentStock(code, time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return stock
}

func balanceOf(t *testing.T, db *gorm.DB, outletID uint) *models.BalanceRecord {
	t.Helper()
	rec, err := ledger.Get(db, outletID)
	require.NoError(t, err)
	return rec
}

func TestMakeOrderNo(t *testing.T) {
	// UTC 01:02:03 = KST 10:02:03
	ts := time.Date(2025, 12, 9, 1, 2, 3, 0, time.UTC)
	assert.Equal(t, "20251209100203ST001", MakeOrderNo("ST001", ts))
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, models.OrderPending.CanTransitionTo(models.OrderApproved))
	assert.True(t, models.OrderApproved.CanTransitionTo(models.OrderPending))
	assert.True(t, models.OrderShipped.CanTransitionTo(models.OrderCanceledByAdmin))
	assert.False(t, models.OrderPending.CanTransitionTo(models.OrderShipped))
	assert.False(t, models.OrderRejected.CanTransitionTo(models.OrderApproved))
	assert.True(t, models.OrderRejected.Terminal())
	assert.False(t, models.OrderApproved.Terminal())
}

func TestSubmitPrepaidOrder(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayPrepaid, "not")
	require.NoError(t, err)

	// KDV: 2000 * %10 = 200, toplam 2200
	assert.Equal(t, int64(2200), o.TotalAmount)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.True(t, strings.HasSuffix(o.OrderNo, "ST001"))
	require.Len(t, o.Lines, 1)
	assert.Equal(t, int64(2000), o.Lines[0].SupplyAmount)
	assert.Equal(t, int64(200), o.Lines[0].TaxAmount)

	rec := balanceOf(t, db, outlet.ID)
	assert.Equal(t, int64(7800), rec.PrepaidBalance)
	assert.Equal(t, int64(0), rec.UsedCredit)

	var tx models.Transaction
	require.NoError(t, db.Where("related_order_no = ?", o.OrderNo).First(&tx).Error)
	assert.Equal(t, models.TxPrepaidPayment, tx.Kind)
	assert.Equal(t, int64(-2200), tx.Amount)
	assert.Equal(t, int64(7800), tx.ResultingPrepaid)
}

func TestSubmitExemptProductNoTax(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P002", 1000, models.TaxClassExempt)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P002", Quantity: 3}}, PayPrepaid, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), o.TotalAmount)
	assert.Equal(t, int64(0), o.Lines[0].TaxAmount)
}

func TestSubmitCreditOrder(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 0, 5000)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayCredit, "")
	require.NoError(t, err)

	rec := balanceOf(t, db, outlet.ID)
	assert.Equal(t, int64(0), rec.PrepaidBalance)
	assert.Equal(t, int64(2200), rec.UsedCredit)
	assert.Equal(t, int64(2800), rec.AvailableCredit())

	var tx models.Transaction
	require.NoError(t, db.Where("related_order_no = ?", o.OrderNo).First(&tx).Error)
	assert.Equal(t, models.TxCreditPayment, tx.Kind)
}

func TestSubmitInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 1000, 1000)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)

	_, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayPrepaid, "")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayCredit, "")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Hiçbir şey yazılmamış olmalı.
	var orderCount, txCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	db.Model(&models.Transaction{}).Count(&txCount)
	assert.Zero(t, orderCount)
	assert.Zero(t, txCount)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)

	_, err := wf.Submit(outlet.ID, nil, PayPrepaid, "")
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 0}}, PayPrepaid, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = wf.Submit(outlet.ID, []LineInput{{ItemCode: "YOK", Quantity: 1}}, PayPrepaid, "")
	require.Error(t, err)
}

func TestApproveShipsStock(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 5)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayPrepaid, "")
	require.NoError(t, err)

	result, err := wf.Approve([]string{o.OrderNo}, "operator")
	require.NoError(t, err)
	assert.Equal(t, []string{o.OrderNo}, result.Processed)

	assert.Equal(t, int64(3), stockOf(t, db, "P001"))

	var updated models.Order
	require.NoError(t, db.Where("order_no = ?", o.OrderNo).First(&updated).Error)
	assert.Equal(t, models.OrderApproved, updated.Status)
	assert.Equal(t, "operator", updated.Handler)
	require.NotNil(t, updated.HandledAt)

	var entry models.InventoryLogEntry
	require.NoError(t, db.Where("kind = ?", models.InvChangeShip).First(&entry).Error)
	assert.Equal(t, int64(-2), entry.QuantityDelta)
	assert.Contains(t, entry.ReferenceID, o.OrderNo)
}

func TestApproveAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 1)

	o1, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 1}}, PayPrepaid, "")
	require.NoError(t, err)
	o2, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 1}}, PayPrepaid, "")
	require.NoError(t, err)

	_, err = wf.Approve([]string{o1.OrderNo, o2.OrderNo}, "operator")
	var shortage *StockShortageError
	require.ErrorAs(t, err, &shortage)
	require.Len(t, shortage.Shortfalls, 1)
	assert.Equal(t, int64(2), shortage.Shortfalls[0].Required)
	assert.Equal(t, int64(1), shortage.Shortfalls[0].Available)
	assert.Equal(t, int64(1), shortage.Shortfalls[0].Missing)

	// Hiçbiri onaylanmamış, sevk kaydı yazılmamış olmalı.
	var approved int64
	db.Model(&models.Order{}).Where("status = ?", models.OrderApproved).Count(&approved)
	assert.Zero(t, approved)
	var ships int64
	db.Model(&models.InventoryLogEntry{}).Where("kind = ?", models.InvChangeShip).Count(&ships)
	assert.Zero(t, ships)
}

func TestApproveCountsUnselectedPendingReserves(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 20000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 5)

	// Seçim dışı bekleyen sipariş 4 adedi rezerve eder.
	_, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 4}}, PayPrepaid, "")
	require.NoError(t, err)
	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayPrepaid, "")
	require.NoError(t, err)

	_, err = wf.Approve([]string{o.OrderNo}, "operator")
	var shortage *StockShortageError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, int64(1), shortage.Shortfalls[0].Available)
}

func TestApproveSkipsUnknownAndNonPending(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 10)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 1}}, PayPrepaid, "")
	require.NoError(t, err)
	_, err = wf.Approve([]string{o.OrderNo}, "operator")
	require.NoError(t, err)

	// Zaten onaylı sipariş ve kayıtlı olmayan numara atlanır.
	result, err := wf.Approve([]string{o.OrderNo, "YOK123"}, "operator")
	require.NoError(t, err)
	assert.Empty(t, result.Processed)
	assert.ElementsMatch(t, []string{o.OrderNo, "YOK123"}, result.Skipped)
}

func TestRejectRefundsOriginalRail(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 0, 5000)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayCredit, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2200), balanceOf(t, db, outlet.ID).UsedCredit)

	_, err = wf.Reject([]string{o.OrderNo}, "operator", "")
	require.ErrorIs(t, err, ErrReasonRequired)

	result, err := wf.Reject([]string{o.OrderNo}, "operator", "stok planı değişti")
	require.NoError(t, err)
	assert.Equal(t, []string{o.OrderNo}, result.Processed)

	rec := balanceOf(t, db, outlet.ID)
	assert.Equal(t, int64(0), rec.UsedCredit)

	var refund models.Transaction
	require.NoError(t, db.Where("related_order_no = ? AND kind = ?", o.OrderNo, models.TxCreditRefund).First(&refund).Error)
	assert.Equal(t, int64(2200), refund.Amount)

	var updated models.Order
	require.NoError(t, db.Where("order_no = ?", o.OrderNo).First(&updated).Error)
	assert.Equal(t, models.OrderRejected, updated.Status)
	assert.Equal(t, "stok planı değişti", updated.RejectReason)
}

func TestRejectWithoutOriginalPayment(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 5000, 0)

	// Borçlandırma kaydı olmayan eski bir sipariş.
	orphan := models.Order{
		OrderNo:    "20250101000000ST001",
		OutletID:   outlet.ID,
		OutletCode: outlet.Code,
		Status:     models.OrderPending,
	}
	require.NoError(t, db.Create(&orphan).Error)

	result, err := wf.Reject([]string{orphan.OrderNo}, "operator", "eski kayıt")
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.OrderNo}, result.NoRefund)
	assert.Empty(t, result.Processed)

	// Durum değişir ama para hareketi olmaz.
	var updated models.Order
	require.NoError(t, db.Where("order_no = ?", orphan.OrderNo).First(&updated).Error)
	assert.Equal(t, models.OrderRejected, updated.Status)
	assert.Equal(t, int64(5000), balanceOf(t, db, outlet.ID).PrepaidBalance)
}

func TestCancelByOutletChecksOwnership(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	owner := seedOutlet(t, db, "ST001", 10000, 0)
	other := seedOutlet(t, db, "ST002", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)

	o, err := wf.Submit(owner.ID, []LineInput{{ItemCode: "P001", Quantity: 1}}, PayPrepaid, "")
	require.NoError(t, err)

	result, err := wf.CancelByOutlet([]string{o.OrderNo}, other.ID, other.Name)
	require.NoError(t, err)
	assert.Equal(t, []string{o.OrderNo}, result.Skipped)

	result, err = wf.CancelByOutlet([]string{o.OrderNo}, owner.ID, owner.Name)
	require.NoError(t, err)
	assert.Equal(t, []string{o.OrderNo}, result.Processed)

	assert.Equal(t, int64(10000), balanceOf(t, db, owner.ID).PrepaidBalance)
	var updated models.Order
	require.NoError(t, db.Where("order_no = ?", o.OrderNo).First(&updated).Error)
	assert.Equal(t, models.OrderCanceledByOutlet, updated.Status)
}

func TestRevertApprovalRestoresStock(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 5)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayPrepaid, "")
	require.NoError(t, err)
	_, err = wf.Approve([]string{o.OrderNo}, "operator")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stockOf(t, db, "P001"))

	result, err := wf.RevertApprovalToPending([]string{o.OrderNo}, "operator")
	require.NoError(t, err)
	assert.Equal(t, []string{o.OrderNo}, result.Processed)

	assert.Equal(t, int64(5), stockOf(t, db, "P001"))

	var updated models.Order
	require.NoError(t, db.Where("order_no = ?", o.OrderNo).First(&updated).Error)
	assert.Equal(t, models.OrderPending, updated.Status)
	assert.Empty(t, updated.Handler)
	assert.Nil(t, updated.HandledAt)

	var entry models.InventoryLogEntry
	require.NoError(t, db.Where("kind = ?", models.InvChangeCancelShip).First(&entry).Error)
	assert.Equal(t, int64(2), entry.QuantityDelta)

	// Ödeme iadesi yapılmaz; sipariş hâlâ bayinin üstünde.
	assert.Equal(t, int64(7800), balanceOf(t, db, outlet.ID).PrepaidBalance)
}

func TestMarkShippedOnlyApproved(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 5)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 1}}, PayPrepaid, "")
	require.NoError(t, err)

	result, err := wf.MarkShipped([]string{o.OrderNo}, "operator")
	require.NoError(t, err)
	assert.Equal(t, []string{o.OrderNo}, result.Skipped)

	_, err = wf.Approve([]string{o.OrderNo}, "operator")
	require.NoError(t, err)

	result, err = wf.MarkShipped([]string{o.OrderNo}, "operator")
	require.NoError(t, err)
	assert.Equal(t, []string{o.OrderNo}, result.Processed)

	var updated models.Order
	require.NoError(t, db.Where("order_no = ?", o.OrderNo).First(&updated).Error)
	assert.Equal(t, models.OrderShipped, updated.Status)
}

func TestEditAllZerosCancels(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 5)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayPrepaid, "")
	require.NoError(t, err)
	_, err = wf.Approve([]string{o.OrderNo}, "operator")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stockOf(t, db, "P001"))

	result, err := wf.Edit(o.OrderNo, []LineInput{{ItemCode: "P001", Quantity: 0}}, "operator")
	require.NoError(t, err)
	assert.True(t, result.Canceled)
	assert.Empty(t, result.ReplacementNo)
	assert.False(t, result.RefundSkipped)

	// Stok ve bakiye sipariş öncesine döner.
	assert.Equal(t, int64(5), stockOf(t, db, "P001"))
	assert.Equal(t, int64(10000), balanceOf(t, db, outlet.ID).PrepaidBalance)

	var updated models.Order
	require.NoError(t, db.Where("order_no = ?", o.OrderNo).First(&updated).Error)
	assert.Equal(t, models.OrderCanceledByAdmin, updated.Status)

	// Yeni sipariş açılmaz.
	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEditDecreaseRefundsDifference(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 10)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 3}}, PayPrepaid, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3300), o.TotalAmount)
	_, err = wf.Approve([]string{o.OrderNo}, "operator")
	require.NoError(t, err)
	assert.Equal(t, int64(7), stockOf(t, db, "P001"))

	result, err := wf.Edit(o.OrderNo, []LineInput{{ItemCode: "P001", Quantity: 2}}, "operator")
	require.NoError(t, err)
	assert.False(t, result.Canceled)
	require.NotEmpty(t, result.ReplacementNo)

	// Bir adet azalma: 1000 * 1.1 = 1100 iade.
	assert.Equal(t, int64(1100), result.PriceDiff)
	assert.Equal(t, int64(7800), balanceOf(t, db, outlet.ID).PrepaidBalance)

	// Azalan adet stoka geri döner.
	assert.Equal(t, int64(8), stockOf(t, db, "P001"))

	var replacement models.Order
	require.NoError(t, db.Preload("Lines").Where("order_no = ?", result.ReplacementNo).First(&replacement).Error)
	assert.Equal(t, models.OrderModified, replacement.Status)
	assert.Equal(t, int64(2200), replacement.TotalAmount)
	assert.Contains(t, replacement.Note, o.OrderNo)

	var original models.Order
	require.NoError(t, db.Where("order_no = ?", o.OrderNo).First(&original).Error)
	assert.Equal(t, models.OrderCanceledByAdmin, original.Status)
	assert.Contains(t, original.RejectReason, result.ReplacementNo)
}

func TestEditIncreaseChargesDifference(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 10)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayPrepaid, "")
	require.NoError(t, err)
	_, err = wf.Approve([]string{o.OrderNo}, "operator")
	require.NoError(t, err)
	assert.Equal(t, int64(8), stockOf(t, db, "P001"))

	result, err := wf.Edit(o.OrderNo, []LineInput{{ItemCode: "P001", Quantity: 3}}, "operator")
	require.NoError(t, err)

	// Bir adet artış: 1100 ek tahsilat, stoktan bir adet daha düşer.
	assert.Equal(t, int64(-1100), result.PriceDiff)
	assert.Equal(t, int64(6700), balanceOf(t, db, outlet.ID).PrepaidBalance)
	assert.Equal(t, int64(7), stockOf(t, db, "P001"))

	var charge models.Transaction
	require.NoError(t, db.Where("kind = ?", models.TxPrepaidExtraCharge).First(&charge).Error)
	assert.Equal(t, int64(-1100), charge.Amount)
}

func TestEditRefundClearsCreditFirst(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 0, 5000)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 10)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 3}}, PayCredit, "")
	require.NoError(t, err)
	_, err = wf.Approve([]string{o.OrderNo}, "operator")
	require.NoError(t, err)
	assert.Equal(t, int64(3300), balanceOf(t, db, outlet.ID).UsedCredit)

	_, err = wf.Edit(o.OrderNo, []LineInput{{ItemCode: "P001", Quantity: 2}}, "operator")
	require.NoError(t, err)

	// İade önce kredi borcunu kapatır.
	rec := balanceOf(t, db, outlet.ID)
	assert.Equal(t, int64(2200), rec.UsedCredit)
	assert.Equal(t, int64(0), rec.PrepaidBalance)

	var refund models.Transaction
	require.NoError(t, db.Where("kind = ?", models.TxCreditPartialRefund).First(&refund).Error)
	assert.Equal(t, int64(1100), refund.Amount)
}

func TestEditRejectsPendingOrder(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayPrepaid, "")
	require.NoError(t, err)

	// Bekleyen sipariş düzenlenmez; reddet ya da iptal et.
	_, err = wf.Edit(o.OrderNo, []LineInput{{ItemCode: "P001", Quantity: 1}}, "operator")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestEditRejectsUnknownLine(t *testing.T) {
	db := newTestDB(t)
	wf := newTestWorkflow(db)
	outlet := seedOutlet(t, db, "ST001", 10000, 0)
	seedProduct(t, db, "P001", 1000, models.TaxClassTaxable)
	seedStock(t, db, "P001", 10)

	o, err := wf.Submit(outlet.ID, []LineInput{{ItemCode: "P001", Quantity: 2}}, PayPrepaid, "")
	require.NoError(t, err)
	_, err = wf.Approve([]string{o.OrderNo}, "operator")
	require.NoError(t, err)

	_, err = wf.Edit(o.OrderNo, []LineInput{{ItemCode: "YOK", Quantity: 1}}, "operator")
	require.Error(t, err)
}
