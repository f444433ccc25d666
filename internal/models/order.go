package models

import "time"

type OrderStatus string

const (
	OrderPending          OrderStatus = "pending"
	OrderApproved         OrderStatus = "approved"
	OrderShipped          OrderStatus = "shipped" // görünüm için; mali ve stok açısından approved ile aynı
	OrderRejected         OrderStatus = "rejected"
	OrderCanceledByOutlet OrderStatus = "canceled_by_outlet"
	OrderCanceledByAdmin  OrderStatus = "canceled_by_admin"
	OrderModified         OrderStatus = "modified" // düzenleme sonucu oluşan yeni sipariş
)

// Durum makinesi tek yerde: geçiş kontrolü buradan yapılır, handler'lara dağıtılmaz.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:  {OrderApproved, OrderRejected, OrderCanceledByOutlet},
	OrderApproved: {OrderShipped, OrderPending, OrderCanceledByAdmin},
	OrderShipped:  {OrderPending, OrderCanceledByAdmin},
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal durumdaki sipariş satırı bir daha değişmez (silinmez de).
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// Order: sipariş başlığı. Yalnızca order.Workflow yazar.
type Order struct {
	ID           uint   `gorm:"primaryKey"`
	OrderNo      string `gorm:"size:80;uniqueIndex;not null"` // YYYYMMDDHHMMSS + bayi kodu
	OutletID     uint   `gorm:"index;not null"`
	Outlet       Outlet
	OutletCode   string      `gorm:"size:50;index;not null"` // denormalize; tutarlılık denetimi bunun üstünden çalışır
	OutletName   string      `gorm:"size:100"`
	Status       OrderStatus `gorm:"size:30;index;not null"`
	TotalAmount  int64       `gorm:"not null"` // satır toplamlarının kayıtlı özeti
	Note         string      `gorm:"size:255"`
	Handler      string      `gorm:"size:100"`
	HandledAt    *time.Time
	RejectReason string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Lines []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderLine: sipariş kalemi. Fiyat ve isim sipariş anında donar.
type OrderLine struct {
	ID           uint   `gorm:"primaryKey"`
	OrderID      uint   `gorm:"index;not null"`
	ItemCode     string `gorm:"size:50;index;not null"`
	ItemName     string `gorm:"size:100"`
	Unit         string `gorm:"size:20"`
	Quantity     int64  `gorm:"not null"`
	UnitPrice    int64  `gorm:"not null"`
	SupplyAmount int64  `gorm:"not null"` // UnitPrice * Quantity
	TaxAmount    int64  `gorm:"not null"`
	LineTotal    int64  `gorm:"not null"` // SupplyAmount + TaxAmount
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
