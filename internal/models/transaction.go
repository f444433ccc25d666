package models

import "time"

type TransactionKind string

// Her tür tek bir raya dokunur (ön yüklü bakiye ya da kullanılan kredi). Karma
// hareketler (düzenleme farkı, fazla geri ödeme) ray başına ayrı kayıt olarak yazılır;
// böylece işlem geçmişinin tekrar oynatılması bakiye özetini birebir üretir.
const (
	TxDeposit             TransactionKind = "deposit"              // ön yükleme onayı (+)
	TxPrepaidPayment      TransactionKind = "prepaid_payment"      // sipariş ödemesi, ön yüklü (-)
	TxCreditPayment       TransactionKind = "credit_payment"       // sipariş ödemesi, kredili (-)
	TxPrepaidRefund       TransactionKind = "prepaid_refund"       // reddedilen/iptal edilen sipariş iadesi (+)
	TxCreditRefund        TransactionKind = "credit_refund"        // kredili ödemenin iadesi (+)
	TxCreditRepayment     TransactionKind = "credit_repayment"     // kredi geri ödemesi (+)
	TxPrepaidPartialRefund TransactionKind = "prepaid_partial_refund" // düzenleme farkı, iade (+)
	TxCreditPartialRefund  TransactionKind = "credit_partial_refund"  // düzenleme farkı, iade (+)
	TxPrepaidExtraCharge   TransactionKind = "prepaid_extra_charge"   // düzenleme farkı, ek tahsilat (-)
	TxCreditExtraCharge    TransactionKind = "credit_extra_charge"    // düzenleme farkı, ek tahsilat (-)
	TxManualPrepaidAdjust  TransactionKind = "manual_prepaid_adjust"  // operatör düzeltmesi (+/-)
	TxManualCreditAdjust   TransactionKind = "manual_credit_adjust"   // operatör düzeltmesi (+/-)
)

// Apply: türün imzalı tutarla bakiye üzerindeki etkisi. Hem yazma yolunda hem de
// mutabakat denetçisinin tekrar oynatmasında bu tanım kullanılır.
func (k TransactionKind) Apply(prepaid, usedCredit, amount int64) (int64, int64) {
	switch k {
	case TxDeposit, TxPrepaidPayment, TxPrepaidRefund, TxPrepaidPartialRefund,
		TxPrepaidExtraCharge, TxManualPrepaidAdjust:
		return prepaid + amount, usedCredit
	case TxCreditPayment, TxCreditRefund, TxCreditRepayment, TxCreditPartialRefund,
		TxCreditExtraCharge:
		return prepaid, usedCredit - amount
	case TxManualCreditAdjust:
		return prepaid, usedCredit + amount
	}
	return prepaid, usedCredit
}

// IsOrderPayment: siparişin orijinal borçlandırma kaydı mı?
func (k TransactionKind) IsOrderPayment() bool {
	return k == TxPrepaidPayment || k == TxCreditPayment
}

// Transaction: append-only işlem günlüğü. Yazıldıktan sonra değişmez.
type Transaction struct {
	ID                  uint      `gorm:"primaryKey"`
	CreatedAt           time.Time `gorm:"index"`
	OutletID            uint      `gorm:"index;not null"`
	OutletCode          string    `gorm:"size:50;index;not null"`
	OutletName          string    `gorm:"size:100"`
	Kind                TransactionKind `gorm:"size:30;index;not null"`
	Description         string    `gorm:"size:255"`
	Amount              int64     `gorm:"not null"` // imzalı: ödemeler/tahsilatlar negatif, iadeler/yüklemeler pozitif
	ResultingPrepaid    int64     `gorm:"not null"` // yazım anındaki sonuç; gösterim amaçlı anlık görüntü
	ResultingUsedCredit int64     `gorm:"not null"`
	RelatedOrderNo      string    `gorm:"size:80;index"`
	Handler             string    `gorm:"size:100"`
	IdempotencyKey      string    `gorm:"size:64;uniqueIndex;not null"` // tekrar denemeler çift kayıt üretemez
}
