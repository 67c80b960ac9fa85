package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fintrack/config"
	"fintrack/logger"
	"fintrack/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接、迁移表结构并写入系统种子数据
func Init(cfg *config.Config) error {
	db, err := Open(cfg.Database)
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := SeedSystemCategories(db, cfg.Transfer.CategoryName); err != nil {
		return fmt.Errorf("seed system categories: %w", err)
	}

	DB = db
	logger.Base().Info().Str("driver", cfg.Database.Driver).Msg("database initialized")
	return nil
}

// sqliteDSN 追加 busy timeout，路径已带查询参数时用 & 连接
func sqliteDSN(path string) string {
	if strings.Contains(path, "_busy_timeout=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

// Open 根据驱动建立连接
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		file, _, _ := strings.Cut(cfg.Path, "?")
		if dir := filepath.Dir(strings.TrimPrefix(file, "file:")); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
	case config.DriverMySQL, "":
		// clientFoundRows: 让 RowsAffected 统计匹配行而非实际变更行
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=UTC&clientFoundRows=true",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
		)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(parseLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	return db, nil
}

// Migrate 自动迁移数据库表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Category{},
		&models.Subcategory{},
		&models.Transaction{},
		&models.PasswordReset{},
	)
}

// SeedSystemCategories 确保系统转账类别存在（幂等）
// 转账依赖该类别，缺失时转账接口返回 404
func SeedSystemCategories(db *gorm.DB, transferName string) error {
	if transferName == "" {
		transferName = "Transferência"
	}

	var cat models.Category
	err := db.Where("is_system = ? AND system_key = ?", true, models.SystemKeyTransfer).First(&cat).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	key := models.SystemKeyTransfer
	color := "#64748b"
	cat = models.Category{
		Name:      transferName,
		Type:      models.TypeExpense,
		System:    true,
		SystemKey: &key,
		Color:     &color,
	}
	if err := db.Create(&cat).Error; err != nil {
		return err
	}
	logger.Base().Info().Uint("category_id", cat.ID).Str("name", transferName).Msg("system transfer category created")
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}

func parseLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
