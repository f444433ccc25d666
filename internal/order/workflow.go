package order

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tedarik-backend/internal/inventory"
	"tedarik-backend/internal/ledger"
	"tedarik-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInsufficientFunds = errors.New("seçilen ödeme yöntemi tutarı karşılamıyor")
	ErrReasonRequired    = errors.New("ret gerekçesi zorunlu")
	ErrOrderNotFound     = errors.New("sipariş bulunamadı")
	ErrInvalidTransition = errors.New("sipariş bu duruma geçirilemez")
	ErrEmptyOrder        = errors.New("sipariş en az bir kalem içermeli")
	ErrInvalidQuantity   = errors.New("sipariş miktarı pozitif olmalı")
)

type PaymentMethod string

const (
	PayPrepaid PaymentMethod = "prepaid"
	PayCredit  PaymentMethod = "credit"
)

// Shortfall: toplu onayda kalem bazlı stok açığı.
type Shortfall struct {
	ItemCode  string `json:"item_code"`
	ItemName  string `json:"item_name"`
	Required  int64  `json:"required"`
	Available int64  `json:"available"`
	Missing   int64  `json:"missing"`
}

// StockShortageError: parti ya bütün olarak onaylanır ya hiç; açık varsa
// hiçbir şey yazılmadan kalem listesiyle döner.
type StockShortageError struct {
	Shortfalls []Shortfall
}

func (e *StockShortageError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (eksik: %d, gerekli: %d, mevcut: %d)", s.ItemName, s.Missing, s.Required, s.Available))
	}
	return "Stok yetersiz, onay yapılamadı: " + strings.Join(parts, "; ")
}

// LineInput: sipariş kalemi girdisi.
type LineInput struct {
	ItemCode string `json:"item_code"`
	Quantity int64  `json:"quantity"`
}

// BatchResult: toplu işlemde sipariş bazında sonuç. İade kaynağı bulunamayan
// siparişler yine durum değiştirir ama NoRefund altında raporlanır.
type BatchResult struct {
	Processed []string `json:"processed"`
	NoRefund  []string `json:"no_refund"`
	Skipped   []string `json:"skipped"`
}

// EditResult: düzenleme çıktısı.
type EditResult struct {
	Canceled         bool   `json:"canceled"`
	ReplacementNo    string `json:"replacement_no,omitempty"`
	PriceDiff        int64  `json:"price_diff"`
	RefundSkipped    bool   `json:"refund_skipped"`
}

// Workflow: sipariş durum makinesinin tek yazarı. Her operasyon tek bir gorm
// transaction'ı içinde günlük kayıtlarını ve özetleri birlikte yazar; kısmi
// yazım commit edilmez.
type Workflow struct {
	db *gorm.DB

	// Now: sipariş numarası ve işlem zamanları için saat kaynağı.
	Now func() time.Time
}

func NewWorkflow(db *gorm.DB) *Workflow {
	return &Workflow{db: db, Now: time.Now}
}

// Sipariş numaraları merkezin yerel saatiyle üretilir (Seul).
var orderNoLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*3600)
	}
	return loc
}()

func MakeOrderNo(outletCode string, t time.Time) string {
	return t.In(orderNoLocation).Format("20060102150405") + outletCode
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func roundDiv10(n int64) int64 {
	if n >= 0 {
		return (n + 5) / 10
	}
	return -((-n + 5) / 10)
}

// Submit: doğrulama -> sipariş + borçlandırma kaydı -> bakiye. Yetersiz bakiye,
// pasif/bilinmeyen kalem ve sıfır miktar hiçbir şey yazılmadan reddedilir.
func (w *Workflow) Submit(outletID uint, inputs []LineInput, method PaymentMethod, note string) (*models.Order, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyOrder
	}
	if method != PayPrepaid && method != PayCredit {
		return nil, fmt.Errorf("geçersiz ödeme yöntemi: %s", method)
	}

	var created *models.Order
	err := w.db.Transaction(func(tx *gorm.DB) error {
		var outlet models.Outlet
		if err := tx.First(&outlet, outletID).Error; err != nil {
			return fmt.Errorf("bayi bulunamadı: %w", err)
		}
		if !outlet.Active || outlet.Role != models.RoleOutlet {
			return errors.New("hesap sipariş veremez")
		}

		lines := make([]models.OrderLine, 0, len(inputs))
		var total int64
		for _, in := range inputs {
			if in.Quantity <= 0 {
				return fmt.Errorf("%w: %s", ErrInvalidQuantity, in.ItemCode)
			}
			var product models.Product
			if err := tx.Where("code = ?", in.ItemCode).First(&product).Error; err != nil {
				return fmt.Errorf("kalem bulunamadı: %s", in.ItemCode)
			}
			if !product.Active {
				return fmt.Errorf("kalem pasif: %s", in.ItemCode)
			}

			supply := product.Price * in.Quantity
			tax := product.TaxFor(supply)
			lines = append(lines, models.OrderLine{
				ItemCode:     product.Code,
				ItemName:     product.Name,
				Unit:         product.Unit,
				Quantity:     in.Quantity,
				UnitPrice:    product.Price,
				SupplyAmount: supply,
				TaxAmount:    tax,
				LineTotal:    supply + tax,
			})
			total += supply + tax
		}

		rec, err := ledger.Get(tx, outletID)
		if err != nil {
			return err
		}

		var kind models.TransactionKind
		switch method {
		case PayPrepaid:
			if rec.PrepaidBalance < total {
				return fmt.Errorf("%w: ön yüklü bakiye %d, tutar %d", ErrInsufficientFunds, rec.PrepaidBalance, total)
			}
			kind = models.TxPrepaidPayment
		case PayCredit:
			if rec.AvailableCredit() < total {
				return fmt.Errorf("%w: kullanılabilir kredi %d, tutar %d", ErrInsufficientFunds, rec.AvailableCredit(), total)
			}
			kind = models.TxCreditPayment
		}

		now := w.Now()
		o := models.Order{
			OrderNo:     MakeOrderNo(outlet.Code, now),
			OutletID:    outlet.ID,
			OutletCode:  outlet.Code,
			OutletName:  outlet.Name,
			Status:      models.OrderPending,
			TotalAmount: total,
			Note:        note,
			Lines:       lines,
		}
		if err := tx.Create(&o).Error; err != nil {
			return fmt.Errorf("sipariş yazılamadı: %w", err)
		}

		desc := fmt.Sprintf("%s vb. %d kalem sipariş", lines[0].ItemName, len(lines))
		if _, err := ledger.Apply(tx, outletID, kind, -total, desc, o.OrderNo, outlet.Name); err != nil {
			return err
		}

		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Approve: ya parti bütün olarak onaylanır ya hiç. Gerekli miktar, seçili
// siparişlerin toplamı; mevcut stok, seçim dışı bekleyen siparişlerin rezervi
// düşüldükten sonraki değerdir.
func (w *Workflow) Approve(orderNos []string, handler string) (*BatchResult, error) {
	if len(orderNos) == 0 {
		return nil, ErrOrderNotFound
	}

	result := &BatchResult{}
	err := w.db.Transaction(func(tx *gorm.DB) error {
		var orders []models.Order
		if err := tx.Preload("Lines").Where("order_no IN ?", orderNos).Find(&orders).Error; err != nil {
			return fmt.Errorf("siparişler okunamadı: %w", err)
		}

		found := make(map[string]bool, len(orders))
		eligible := make([]models.Order, 0, len(orders))
		for _, o := range orders {
			found[o.OrderNo] = true
			if !o.Status.CanTransitionTo(models.OrderApproved) {
				result.Skipped = append(result.Skipped, o.OrderNo)
				continue
			}
			eligible = append(eligible, o)
		}
		for _, no := range orderNos {
			if !found[no] {
				log.Printf("[WARN] Onay isteğindeki sipariş kayıtlı değil, atlanıyor: %s", no)
				result.Skipped = append(result.Skipped, no)
			}
		}
		if len(eligible) == 0 {
			return nil
		}

		required := map[string]int64{}
		names := map[string]string{}
		selected := make([]string, 0, len(eligible))
		for _, o := range eligible {
			selected = append(selected, o.OrderNo)
			for _, l := range o.Lines {
				required[l.ItemCode] += l.Quantity
				names[l.ItemCode] = l.ItemName
			}
		}

		// Seçim dışı bekleyen siparişlerin rezerve ettiği miktarlar.
		type pendingRow struct {
			ItemCode string
			Total    int64
		}
		var pendingRows []pendingRow
		err := tx.Model(&models.OrderLine{}).
			Joins("JOIN orders ON orders.id = order_lines.order_id").
			Where("orders.status = ? AND orders.order_no NOT IN ?", models.OrderPending, selected).
			Select("order_lines.item_code AS item_code, COALESCE(SUM(order_lines.quantity), 0) AS total").
			Group("order_lines.item_code").
			Scan(&pendingRows).Error
		if err != nil {
			return fmt.Errorf("bekleyen rezervler okunamadı: %w", err)
		}
		reserved := make(map[string]int64, len(pendingRows))
		for _, r := range pendingRows {
			reserved[r.ItemCode] = r.Total
		}

		today := dateOf(w.Now())
		inv := inventory.NewLedger(tx)
		stock, err := inv.CurrentStockAll(today)
		if err != nil {
			return err
		}

		var shortfalls []Shortfall
		for code, need := range required {
			available := stock[code] - reserved[code]
			if need > available {
				shortfalls = append(shortfalls, Shortfall{
					ItemCode:  code,
					ItemName:  names[code],
					Required:  need,
					Available: available,
					Missing:   need - available,
				})
			}
		}
		if len(shortfalls) > 0 {
			return &StockShortageError{Shortfalls: shortfalls}
		}

		refID := strings.Join(selected, ", ")
		movements := make([]inventory.Movement, 0, len(required))
		for code, need := range required {
			movements = append(movements, inventory.Movement{ItemCode: code, ItemName: names[code], Delta: -need})
		}
		if err := inventory.Append(tx, models.InvChangeShip, movements, today, refID, handler, ""); err != nil {
			return err
		}

		now := w.Now()
		err = tx.Model(&models.Order{}).
			Where("order_no IN ?", selected).
			Updates(map[string]interface{}{
				"status":     models.OrderApproved,
				"handler":    handler,
				"handled_at": now,
			}).Error
		if err != nil {
			return fmt.Errorf("sipariş durumu güncellenemedi: %w", err)
		}

		result.Processed = selected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reject: bekleyen siparişi geri çevirir ve ödemeyi orijinal rayına iade eder.
func (w *Workflow) Reject(orderNos []string, handler, reason string) (*BatchResult, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return w.refundAndClose(orderNos, models.OrderRejected, handler, reason, 0)
}

// CancelByOutlet: bayinin kendi bekleyen siparişini iptali. Sahiplik doğrulanır.
func (w *Workflow) CancelByOutlet(orderNos []string, outletID uint, handler string) (*BatchResult, error) {
	return w.refundAndClose(orderNos, models.OrderCanceledByOutlet, handler, "", outletID)
}

// refundAndClose: her sipariş kendi transaction'ında işlenir; birinin hatası
// diğerlerini düşürmez. İade kaynağı (orijinal borçlandırma) yoksa uyarıyla
// durum yine değiştirilir, para hareketi yapılmaz.
func (w *Workflow) refundAndClose(orderNos []string, target models.OrderStatus, handler, reason string, ownerID uint) (*BatchResult, error) {
	result := &BatchResult{}

	for _, no := range orderNos {
		err := w.db.Transaction(func(tx *gorm.DB) error {
			var o models.Order
			if err := tx.Where("order_no = ?", no).First(&o).Error; err != nil {
				return ErrOrderNotFound
			}
			if ownerID != 0 && o.OutletID != ownerID {
				return errors.New("sipariş bu bayiye ait değil")
			}
			if !o.Status.CanTransitionTo(target) {
				return ErrInvalidTransition
			}

			refunded, err := w.refundOriginalPayment(tx, &o, refundDescription(target, no), handler)
			if err != nil {
				return err
			}

			now := w.Now()
			updates := map[string]interface{}{
				"status":     target,
				"handler":    handler,
				"handled_at": now,
			}
			if reason != "" {
				updates["reject_reason"] = reason
			}
			if err := tx.Model(&o).Updates(updates).Error; err != nil {
				return fmt.Errorf("sipariş durumu güncellenemedi: %w", err)
			}

			if refunded {
				result.Processed = append(result.Processed, no)
			} else {
				result.NoRefund = append(result.NoRefund, no)
			}
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Sipariş %s işlenemedi: %v", no, err)
			result.Skipped = append(result.Skipped, no)
		}
	}

	return result, nil
}

func refundDescription(target models.OrderStatus, orderNo string) string {
	switch target {
	case models.OrderRejected:
		return fmt.Sprintf("Sipariş reddi iadesi (%s)", orderNo)
	case models.OrderCanceledByOutlet:
		return fmt.Sprintf("Sipariş iptal iadesi (%s)", orderNo)
	default:
		return fmt.Sprintf("Sipariş iadesi (%s)", orderNo)
	}
}

// refundOriginalPayment: orijinal borçlandırmayı bulur, tutarın tamamını aynı
// raya geri yazar. Kayıt yoksa (false, nil) döner; çağıran degraded yolu izler.
func (w *Workflow) refundOriginalPayment(tx *gorm.DB, o *models.Order, desc, handler string) (bool, error) {
	var orig models.Transaction
	err := tx.Where("related_order_no = ? AND kind IN ?", o.OrderNo,
		[]models.TransactionKind{models.TxPrepaidPayment, models.TxCreditPayment}).
		Order("id ASC").
		First(&orig).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[WARN] Sipariş %s için orijinal borçlandırma kaydı yok, iade atlanıyor", o.OrderNo)
			return false, nil
		}
		return false, fmt.Errorf("orijinal işlem aranamadı: %w", err)
	}

	refund := orig.Amount
	if refund < 0 {
		refund = -refund
	}

	refundKind := models.TxPrepaidRefund
	if orig.Kind == models.TxCreditPayment {
		refundKind = models.TxCreditRefund
	}

	if _, err := ledger.Apply(tx, o.OutletID, refundKind, refund, desc, o.OrderNo, handler); err != nil {
		return false, err
	}
	return true, nil
}

// RevertApprovalToPending: onay geri alma. Sevk edilen miktarlar pozitif
// "cancel_ship" kayıtlarıyla stoka iade edilir, siparişler tekrar beklemeye düşer.
func (w *Workflow) RevertApprovalToPending(orderNos []string, handler string) (*BatchResult, error) {
	if len(orderNos) == 0 {
		return nil, ErrOrderNotFound
	}

	result := &BatchResult{}
	err := w.db.Transaction(func(tx *gorm.DB) error {
		var orders []models.Order
		if err := tx.Preload("Lines").Where("order_no IN ?", orderNos).Find(&orders).Error; err != nil {
			return fmt.Errorf("siparişler okunamadı: %w", err)
		}

		restore := map[string]int64{}
		names := map[string]string{}
		selected := make([]string, 0, len(orders))
		for _, o := range orders {
			if !o.Status.CanTransitionTo(models.OrderPending) {
				result.Skipped = append(result.Skipped, o.OrderNo)
				continue
			}
			selected = append(selected, o.OrderNo)
			for _, l := range o.Lines {
				restore[l.ItemCode] += l.Quantity
				names[l.ItemCode] = l.ItemName
			}
		}
		if len(selected) == 0 {
			return nil
		}

		movements := make([]inventory.Movement, 0, len(restore))
		for code, qty := range restore {
			movements = append(movements, inventory.Movement{ItemCode: code, ItemName: names[code], Delta: qty})
		}
		refID := strings.Join(selected, ", ")
		if err := inventory.Append(tx, models.InvChangeCancelShip, movements, dateOf(w.Now()), refID, handler, "Onay geri alındı"); err != nil {
			return err
		}

		err := tx.Model(&models.Order{}).
			Where("order_no IN ?", selected).
			Updates(map[string]interface{}{
				"status":     models.OrderPending,
				"handler":    "",
				"handled_at": nil,
			}).Error
		if err != nil {
			return fmt.Errorf("sipariş durumu güncellenemedi: %w", err)
		}

		result.Processed = selected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkShipped: görünüm durumu; stok ve para hareketi onayda yapılmıştır.
func (w *Workflow) MarkShipped(orderNos []string, handler string) (*BatchResult, error) {
	if len(orderNos) == 0 {
		return nil, ErrOrderNotFound
	}

	result := &BatchResult{}
	err := w.db.Transaction(func(tx *gorm.DB) error {
		var orders []models.Order
		if err := tx.Where("order_no IN ?", orderNos).Find(&orders).Error; err != nil {
			return fmt.Errorf("siparişler okunamadı: %w", err)
		}

		now := w.Now()
		for _, o := range orders {
			if !o.Status.CanTransitionTo(models.OrderShipped) {
				result.Skipped = append(result.Skipped, o.OrderNo)
				continue
			}
			err := tx.Model(&o).Updates(map[string]interface{}{
				"status":     models.OrderShipped,
				"handler":    handler,
				"handled_at": now,
			}).Error
			if err != nil {
				return fmt.Errorf("sipariş durumu güncellenemedi: %w", err)
			}
			result.Processed = append(result.Processed, o.OrderNo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Edit: onaylı siparişin miktarlarını değiştirir. inputs yeni kalem kümesinin
// tamamıdır; listede olmayan kalem sıfıra çekilmiş sayılır. Tüm miktarlar sıfırsa
// tam iptal: stok iadesi + tam geri ödeme, yeni sipariş oluşturulmaz. Aksi halde
// fark kadar stok düzeltmesi ve ray bazlı fark tahsilatı/iadesi yapılır, düzenlenmiş
// kalemlerle MODIFIED durumunda yeni bir sipariş açılır, orijinal iptal edilir.
func (w *Workflow) Edit(orderNo string, inputs []LineInput, handler string) (*EditResult, error) {
	result := &EditResult{}
	err := w.db.Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Preload("Lines").Where("order_no = ?", orderNo).First(&o).Error; err != nil {
			return ErrOrderNotFound
		}
		if !o.Status.CanTransitionTo(models.OrderCanceledByAdmin) {
			return ErrInvalidTransition
		}

		oldQty := map[string]int64{}
		lineByCode := map[string]models.OrderLine{}
		for _, l := range o.Lines {
			oldQty[l.ItemCode] = l.Quantity
			lineByCode[l.ItemCode] = l
		}

		newQty := map[string]int64{}
		for _, in := range inputs {
			if in.Quantity < 0 {
				return fmt.Errorf("%w: %s", ErrInvalidQuantity, in.ItemCode)
			}
			if _, ok := oldQty[in.ItemCode]; !ok {
				return fmt.Errorf("kalem siparişte yok: %s", in.ItemCode)
			}
			newQty[in.ItemCode] = in.Quantity
		}

		allZero := true
		for _, q := range newQty {
			if q > 0 {
				allZero = false
				break
			}
		}

		now := w.Now()
		today := dateOf(now)

		// Tüm kalemler sıfır: tam iptal.
		if len(newQty) == 0 || allZero {
			movements := make([]inventory.Movement, 0, len(o.Lines))
			for _, l := range o.Lines {
				movements = append(movements, inventory.Movement{ItemCode: l.ItemCode, ItemName: l.ItemName, Delta: l.Quantity})
			}
			if err := inventory.Append(tx, models.InvChangeCancelShip, movements, today, orderNo, handler, "Düzenleme ile tam iptal"); err != nil {
				return err
			}

			refunded, err := w.refundOriginalPayment(tx, &o, fmt.Sprintf("Düzenleme ile tam iptal iadesi (%s)", orderNo), handler)
			if err != nil {
				return err
			}
			result.RefundSkipped = !refunded

			err = tx.Model(&o).Updates(map[string]interface{}{
				"status":        models.OrderCanceledByAdmin,
				"handler":       handler,
				"handled_at":    now,
				"reject_reason": "Düzenlemede tüm kalemler sıfırlandı",
			}).Error
			if err != nil {
				return fmt.Errorf("sipariş durumu güncellenemedi: %w", err)
			}

			result.Canceled = true
			return nil
		}

		// Kısmi düzenleme: fark kadar stok ve para hareketi.
		var movements []inventory.Movement
		var sumDiff int64 // Σ(Δmiktar × birim fiyat)
		for code, old := range oldQty {
			delta := newQty[code] - old
			if delta == 0 {
				continue
			}
			l := lineByCode[code]
			// Daha fazla sipariş daha fazla sevk demektir: stok değişimi -Δ.
			movements = append(movements, inventory.Movement{ItemCode: code, ItemName: l.ItemName, Delta: -delta})
			sumDiff += delta * l.UnitPrice
		}

		if len(movements) > 0 {
			if err := inventory.Append(tx, models.InvChangeAdjust, movements, today, orderNo, handler, "Sipariş düzenleme farkı"); err != nil {
				return err
			}
		}

		// Fark KDV dahil hesaplanır: -Σ(Δ × fiyat × 1.1), tam sayıya yuvarlanır.
		priceDiff := -roundDiv10(sumDiff * 11)
		result.PriceDiff = priceDiff

		if priceDiff != 0 {
			rec, err := ledger.Get(tx, o.OutletID)
			if err != nil {
				return err
			}

			if priceDiff > 0 {
				// İade: önce kredi borcu kapanır, kalan ön yüklemeye döner.
				creditPart := priceDiff
				if creditPart > rec.UsedCredit {
					creditPart = rec.UsedCredit
				}
				prepaidPart := priceDiff - creditPart
				desc := fmt.Sprintf("Sipariş %s düzenleme iadesi", orderNo)
				if creditPart > 0 {
					if _, err := ledger.Apply(tx, o.OutletID, models.TxCreditPartialRefund, creditPart, desc, orderNo, handler); err != nil {
						return err
					}
				}
				if prepaidPart > 0 {
					if _, err := ledger.Apply(tx, o.OutletID, models.TxPrepaidPartialRefund, prepaidPart, desc, orderNo, handler); err != nil {
						return err
					}
				}
			} else {
				// Ek tahsilat: önce ön yüklü bakiye, kalan krediye yazılır.
				pay := -priceDiff
				prepaidPart := pay
				if prepaidPart > rec.PrepaidBalance {
					prepaidPart = rec.PrepaidBalance
				}
				creditPart := pay - prepaidPart
				if creditPart > rec.AvailableCredit() {
					return fmt.Errorf("%w: ek tahsilat %d, kullanılabilir kredi %d", ErrInsufficientFunds, creditPart, rec.AvailableCredit())
				}
				desc := fmt.Sprintf("Sipariş %s düzenleme ek tahsilatı", orderNo)
				if prepaidPart > 0 {
					if _, err := ledger.Apply(tx, o.OutletID, models.TxPrepaidExtraCharge, -prepaidPart, desc, orderNo, handler); err != nil {
						return err
					}
				}
				if creditPart > 0 {
					if _, err := ledger.Apply(tx, o.OutletID, models.TxCreditExtraCharge, -creditPart, desc, orderNo, handler); err != nil {
						return err
					}
				}
			}
		}

		// Düzenlenmiş kalemlerle yeni sipariş; orijinal iptal edilip ona bağlanır.
		newNo := MakeOrderNo(o.OutletCode, now)
		var newLines []models.OrderLine
		var newTotal int64
		for code, qty := range newQty {
			if qty == 0 {
				continue
			}
			l := lineByCode[code]
			var product models.Product
			if err := tx.Where("code = ?", code).First(&product).Error; err != nil {
				return fmt.Errorf("kalem bulunamadı: %s", code)
			}
			supply := l.UnitPrice * qty
			tax := product.TaxFor(supply)
			newLines = append(newLines, models.OrderLine{
				ItemCode:     l.ItemCode,
				ItemName:     l.ItemName,
				Unit:         l.Unit,
				Quantity:     qty,
				UnitPrice:    l.UnitPrice,
				SupplyAmount: supply,
				TaxAmount:    tax,
				LineTotal:    supply + tax,
			})
			newTotal += supply + tax
		}

		replacement := models.Order{
			OrderNo:     newNo,
			OutletID:    o.OutletID,
			OutletCode:  o.OutletCode,
			OutletName:  o.OutletName,
			Status:      models.OrderModified,
			TotalAmount: newTotal,
			Note:        fmt.Sprintf("[Düzenlendi] Orijinal: %s", orderNo),
			Handler:     handler,
			HandledAt:   &now,
			Lines:       newLines,
		}
		if err := tx.Create(&replacement).Error; err != nil {
			return fmt.Errorf("düzenlenmiş sipariş yazılamadı: %w", err)
		}

		err := tx.Model(&o).Updates(map[string]interface{}{
			"status":        models.OrderCanceledByAdmin,
			"handler":       handler,
			"handled_at":    now,
			"reject_reason": fmt.Sprintf("Yerine %s oluşturuldu", newNo),
		}).Error
		if err != nil {
			return fmt.Errorf("sipariş durumu güncellenemedi: %w", err)
		}

		result.ReplacementNo = newNo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
