package database

import (
	"errors"
	"fmt"
	"strings"

	"cafe-backend/internal/config"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init config'e göre veritabanını açar, migration ve (istenirse) varsayılan
// kayıtları ekler. Hata durumunda uygulama başlamamalı.
func Init(cfg *config.Config) error {
	dsn := cfg.DatabaseDSN
	if cfg.DBType == "sqlite" {
		dsn = cfg.SQLitePath
	}

	db, err := Open(cfg.DBType, dsn, gormlogger.Warn)
	if err != nil {
		return fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}
	if err := Migrate(db); err != nil {
		return err
	}
	if cfg.SeedDefaults {
		if err := Seed(db); err != nil {
			return err
		}
	}

	DB = db
	logger.L().Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.", zap.String("db_type", cfg.DBType))
	return nil
}

// Open dbType (postgres | sqlite) için gorm bağlantısı açar.
func Open(dbType, dsn string, level gormlogger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbType {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("desteklenmeyen veritabanı tipi: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	if dbType == "sqlite" {
		// SQLite tek yazar kabul eder; havuzu tek bağlantıya indir
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
	}
	return db, nil
}

// OpenMemory testler için isimli, paylaşımlı bellek içi SQLite açar ve
// migration'ları çalıştırır. Her test kendi ismini vermeli.
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(name, "/", "_")), gormlogger.Silent)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.ProductCategory{},
		&models.Material{},
		&models.MaterialMovement{},
		&models.Item{},
		&models.RecipeLine{},
		&models.StockMovement{},
		&models.Sale{},
		&models.ExpenseCategory{},
		&models.Expense{},
		&models.MonthlyReport{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}
	return nil
}

// Seed varsayılan ürün ve gider kategorilerini ekler. Var olan kodlara
// dokunmaz, tekrar çalıştırılabilir.
func Seed(db *gorm.DB) error {
	for _, cat := range models.DefaultProductCategories() {
		cat.Status = models.StatusActive
		var existing models.ProductCategory
		err := db.Where("code = ?", cat.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("kategori kontrol edilemedi: %w", err)
		}
		if err := db.Create(&cat).Error; err != nil {
			return fmt.Errorf("kategori eklenemedi (%s): %w", cat.Code, err)
		}
		logger.L().Info("Varsayılan ürün kategorisi eklendi", zap.String("code", cat.Code))
	}

	for _, cat := range models.DefaultExpenseCategories() {
		cat.Status = models.StatusActive
		var existing models.ExpenseCategory
		err := db.Where("code = ?", cat.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("gider kategorisi kontrol edilemedi: %w", err)
		}
		if err := db.Create(&cat).Error; err != nil {
			return fmt.Errorf("gider kategorisi eklenemedi (%s): %w", cat.Code, err)
		}
		logger.L().Info("Varsayılan gider kategorisi eklendi", zap.String("code", cat.Code))
	}
	return nil
}

// Ping /health için bağlantıyı kontrol eder.
func Ping() error {
	if DB == nil {
		return errors.New("veritabanı başlatılmadı")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
