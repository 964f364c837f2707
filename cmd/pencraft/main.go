// Основной пакет приложения Pencraft. Отвечает за чтение конфигурации, подключение к базе данных, миграцию моделей и запуск сервера.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft"
	"github.com/aisa-it/pencraft/internal/pencraft/config"
	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/gormlogger"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var version string = "DEV"

// Пример запуска: go run main.go --noMigration --trace
func main() {
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	slog.Info("Pencraft start.")

	db, err := openDB(cfg, *paramQueries)
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	if !*noMigration {
		slog.Info("Migrate models")
		if err := dao.Migrate(db); err != nil {
			slog.Error("Fail migrate models", "err", err)
			os.Exit(1)
		}
	}

	pencraft.Server(db, cfg, version)
}

// openDB подключается к Postgres по DATABASE_URL, без него к файлу SQLite.
func openDB(cfg *config.Config, paramQueries bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Second*4, paramQueries),
	}

	if cfg.DatabaseDSN == "" {
		slog.Info("Use SQLite database", "path", cfg.SQLitePath)
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gormCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("conn pool settings: %w", err)
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)
	return db, nil
}

// PrintBanner выводит заголовок приложения с версией.
func PrintBanner() {
	banner := `
 ____                                 __ _
|  _ \ ___ _ __   ___ _ __ __ _  __ _/ _| |_
| |_) / _ \ '_ \ / __| '__/ _' |/ _' | |_| __|
|  __/  __/ | | | (__| | | (_| | (_| |  _| |_
|_|   \___|_| |_|\___|_|  \__,_|\__,_|_|  \__| %s
Write, polish and publish
----------------------------------------------
`
	colorReset := "\033[0m"
	colorYellow := "\033[33m"

	formattedVersion := version
	if version == "DEV" {
		formattedVersion = colorYellow + version + colorReset
	}

	fmt.Printf(banner, formattedVersion)
}
