package db

import (
	"errors"
	"fmt"
	"strings"

	"parsgolf/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// Open 根据 DSN 选择驱动：sqlite:// 前缀或 .db 结尾使用 SQLite，其余按 Postgres DSN 处理
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dialector, driver := dialectorFor(dsn)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		// SQLite 单写者
		sqlDB.SetMaxOpenConns(1)
		if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	log.Info("Database connection established", zap.String("driver", driver))
	return gdb, nil
}

func dialectorFor(dsn string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(dsn, sqlitePrefix):
		return sqlite.Open(sqlitePath(dsn)), "sqlite"
	case dsn == ":memory:" || strings.HasSuffix(dsn, ".db"):
		return sqlite.Open(dsn), "sqlite"
	default:
		return postgres.Open(dsn), "postgres"
	}
}

// sqlitePath 与 SQLAlchemy 相同：sqlite:///x.db 是相对路径，sqlite:////abs/x.db 是绝对路径
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, sqlitePrefix)
	return strings.TrimPrefix(path, "/")
}

// Migrate 创建或更新全部表结构
func Migrate(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&models.User{},
		&models.ClubBrand{},
		&models.ClubType{},
		&models.Club{},
		&models.Player{},
		&models.PlayerAchievement{},
		&models.Course{},
		&models.CourseHole{},
		&models.Vote{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedClubTypes 预置球杆类型，已存在的按名称跳过
func SeedClubTypes(gdb *gorm.DB, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}

	created := 0
	for _, t := range models.DefaultClubTypes {
		var existing models.ClubType
		err := gdb.Where("name = ?", t.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("failed to look up club type %s: %w", t.Name, err)
		}

		record := t
		if err := gdb.Create(&record).Error; err != nil {
			return created, fmt.Errorf("failed to create club type %s: %w", t.Name, err)
		}
		created++
	}

	if created == 0 {
		log.Info("Club types already seeded, skipping")
	} else {
		log.Info("Initial club types created", zap.Int("count", created))
	}
	return created, nil
}
