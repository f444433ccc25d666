package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleOutlet UserRole = "outlet"
)

// Outlet: bayi hesabı. Merkez yöneticisi de role=admin olan bir Outlet kaydıdır.
type Outlet struct {
	ID              uint   `gorm:"primaryKey"`
	Code            string `gorm:"size:50;uniqueIndex;not null"` // giriş ID'si, sipariş numaralarında da kullanılır
	PasswordHash    string `gorm:"size:255;not null"`
	Role            UserRole `gorm:"size:20;not null"`
	Name            string `gorm:"size:100;not null"`
	TaxRegistration string `gorm:"size:50"`  // vergi numarası
	BusinessName    string `gorm:"size:100"` // ticari unvan
	Owner           string `gorm:"size:100"`
	Address         string `gorm:"size:255"`
	Category        string `gorm:"size:50"` // iş kolu
	Subcategory     string `gorm:"size:50"`
	Active          bool   `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
