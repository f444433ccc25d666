package database

import (
	"log"

	"tedarik-backend/internal/config"
	"tedarik-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: çekirdek tabloların şeması. Testler aynı şemayı sqlite üstünde kurar.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Outlet{},
		&models.Product{},
		&models.PriceHistory{},
		&models.Order{},
		&models.OrderLine{},
		&models.BalanceRecord{},
		&models.Transaction{},
		&models.InventoryLogEntry{},
		&models.ChargeRequest{},
		&models.AuditEntry{},
	)
}
