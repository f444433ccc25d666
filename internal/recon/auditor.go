package recon

import (
	"fmt"
	"strings"

	"tedarik-backend/internal/models"

	"gorm.io/gorm"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Result: tek denetimin çıktısı. Issues insan okunur satırlardır; denetim
// düzeltme yapmaz, sadece raporlar.
type Result struct {
	Name   string   `json:"name"`
	Status Status   `json:"status"`
	Issues []string `json:"issues"`
}

func (r *Result) errorf(format string, args ...any) {
	r.Status = StatusError
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	if r.Status != StatusError {
		r.Status = StatusWarning
	}
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

// Auditor: türetilmiş özetlerle append-only günlükleri karşılaştırır. Salt
// okunur çalışır; bulduğu hiçbir şeyi kendisi düzeltmez.
type Auditor struct {
	db *gorm.DB
}

func NewAuditor(db *gorm.DB) *Auditor {
	return &Auditor{db: db}
}

// CheckFinancial: her bayi için işlem günlüğü baştan oynatılır ve sonuç bakiye
// özetiyle karşılaştırılır. Uyuşmazlık her zaman hatadır.
func (a *Auditor) CheckFinancial() (*Result, error) {
	result := &Result{Name: "financial_replay", Status: StatusOK}

	var records []models.BalanceRecord
	if err := a.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("bakiye özetleri okunamadı: %w", err)
	}

	for _, rec := range records {
		var txs []models.Transaction
		err := a.db.Where("outlet_id = ?", rec.OutletID).
			Order("created_at ASC, id ASC").
			Find(&txs).Error
		if err != nil {
			return nil, fmt.Errorf("işlem günlüğü okunamadı: %w", err)
		}

		var prepaid, usedCredit int64
		for _, t := range txs {
			prepaid, usedCredit = t.Kind.Apply(prepaid, usedCredit, t.Amount)
		}

		if prepaid != rec.PrepaidBalance {
			result.errorf("Bayi %d (%s): ön yüklü bakiye tutmuyor; günlük %d, özet %d",
				rec.OutletID, rec.OutletName, prepaid, rec.PrepaidBalance)
		}
		if usedCredit != rec.UsedCredit {
			result.errorf("Bayi %d (%s): kullanılan kredi tutmuyor; günlük %d, özet %d",
				rec.OutletID, rec.OutletName, usedCredit, rec.UsedCredit)
		}
		if rec.UsedCredit > rec.CreditLimit {
			result.warnf("Bayi %d (%s): kullanılan kredi limiti aşıyor (%d > %d)",
				rec.OutletID, rec.OutletName, rec.UsedCredit, rec.CreditLimit)
		}
	}

	return result, nil
}

// CheckTransactionLinks: sipariş numarası taşıyan her işlem gerçek bir siparişe
// bağlanmalı; orijinal borçlandırmanın tutarı sipariş toplamıyla eşleşmeli.
func (a *Auditor) CheckTransactionLinks() (*Result, error) {
	result := &Result{Name: "transaction_links", Status: StatusOK}

	var txs []models.Transaction
	if err := a.db.Where("related_order_no <> ''").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("işlem günlüğü okunamadı: %w", err)
	}

	orderNos := map[string]bool{}
	for _, t := range txs {
		orderNos[t.RelatedOrderNo] = true
	}
	nos := make([]string, 0, len(orderNos))
	for no := range orderNos {
		nos = append(nos, no)
	}

	totals := map[string]int64{}
	if len(nos) > 0 {
		var orders []models.Order
		if err := a.db.Where("order_no IN ?", nos).Find(&orders).Error; err != nil {
			return nil, fmt.Errorf("siparişler okunamadı: %w", err)
		}
		for _, o := range orders {
			totals[o.OrderNo] = o.TotalAmount
		}
	}

	for _, t := range txs {
		total, ok := totals[t.RelatedOrderNo]
		if !ok {
			result.errorf("İşlem %d: var olmayan siparişe referans (%s)", t.ID, t.RelatedOrderNo)
			continue
		}
		// Tutar karşılaştırması yalnızca orijinal borçlandırma için anlamlı;
		// kısmi iade ve ek tahsilat tutarları sipariş toplamından farklıdır.
		if t.Kind.IsOrderPayment() && -t.Amount != total {
			result.errorf("İşlem %d: borçlandırma tutarı sipariş toplamıyla uyuşmuyor (%s: işlem %d, sipariş %d)",
				t.ID, t.RelatedOrderNo, -t.Amount, total)
		}
	}

	return result, nil
}

// CheckInventoryShipments: onaylı/sevk edilmiş her siparişin bir sevk kaydı
// olmalı. Toplu onay tek kayda birden çok sipariş numarası yazar; eksikler
// elle müdahale izine işaret edebilir, uyarı olarak raporlanır.
func (a *Auditor) CheckInventoryShipments() (*Result, error) {
	result := &Result{Name: "inventory_shipments", Status: StatusOK}

	var orders []models.Order
	err := a.db.Where("status IN ?", []models.OrderStatus{models.OrderApproved, models.OrderShipped}).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("siparişler okunamadı: %w", err)
	}
	if len(orders) == 0 {
		return result, nil
	}

	var entries []models.InventoryLogEntry
	err = a.db.Where("kind = ? AND reference_id <> ''", models.InvChangeShip).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("stok günlüğü okunamadı: %w", err)
	}

	covered := map[string]bool{}
	for _, e := range entries {
		for _, no := range strings.Split(e.ReferenceID, ", ") {
			covered[no] = true
		}
	}

	for _, o := range orders {
		if !covered[o.OrderNo] {
			result.warnf("Sipariş %s (%s): onaylı ama sevk kaydı yok", o.OrderNo, string(o.Status))
		}
	}

	return result, nil
}

// CheckReferentialIntegrity: günlüklerdeki bayi ve kalem kodları ana kayıtlarda
// var olmalı.
func (a *Auditor) CheckReferentialIntegrity() (*Result, error) {
	result := &Result{Name: "referential_integrity", Status: StatusOK}

	var outlets []models.Outlet
	if err := a.db.Find(&outlets).Error; err != nil {
		return nil, fmt.Errorf("bayiler okunamadı: %w", err)
	}
	outletCodes := map[string]bool{}
	for _, o := range outlets {
		outletCodes[o.Code] = true
	}

	var products []models.Product
	if err := a.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("katalog okunamadı: %w", err)
	}
	itemCodes := map[string]bool{}
	for _, p := range products {
		itemCodes[p.Code] = true
	}

	var orders []models.Order
	if err := a.db.Preload("Lines").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("siparişler okunamadı: %w", err)
	}
	for _, o := range orders {
		if !outletCodes[o.OutletCode] {
			result.errorf("Sipariş %s: bilinmeyen bayi kodu (%s)", o.OrderNo, o.OutletCode)
		}
		for _, l := range o.Lines {
			if !itemCodes[l.ItemCode] {
				result.errorf("Sipariş %s: bilinmeyen kalem kodu (%s)", o.OrderNo, l.ItemCode)
			}
		}
	}

	var txs []models.Transaction
	if err := a.db.Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("işlem günlüğü okunamadı: %w", err)
	}
	for _, t := range txs {
		if t.OutletCode != "" && !outletCodes[t.OutletCode] {
			result.errorf("İşlem %d: bilinmeyen bayi kodu (%s)", t.ID, t.OutletCode)
		}
	}

	var entries []models.InventoryLogEntry
	if err := a.db.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("stok günlüğü okunamadı: %w", err)
	}
	for _, e := range entries {
		if !itemCodes[e.ItemCode] {
			result.errorf("Stok kaydı %d: bilinmeyen kalem kodu (%s)", e.ID, e.ItemCode)
		}
	}

	return result, nil
}

// RunAll: dört denetimi sırayla çalıştırır. Tek denetimin okunamaması diğerlerini
// düşürmez; hata, o denetimin sonucu olarak raporlanır.
func (a *Auditor) RunAll() []Result {
	checks := []func() (*Result, error){
		a.CheckFinancial,
		a.CheckTransactionLinks,
		a.CheckInventoryShipments,
		a.CheckReferentialIntegrity,
	}
	names := []string{"financial_replay", "transaction_links", "inventory_shipments", "referential_integrity"}

	results := make([]Result, 0, len(checks))
	for i, check := range checks {
		r, err := check()
		if err != nil {
			results = append(results, Result{
				Name:   names[i],
				Status: StatusError,
				Issues: []string{fmt.Sprintf("Denetim çalıştırılamadı: %v", err)},
			})
			continue
		}
		results = append(results, *r)
	}
	return results
}
