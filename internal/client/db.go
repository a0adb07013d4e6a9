package client

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"zion-admin/internal/model"
)

// InitDB opens the database named by databaseURL. A mysql DSN (contains
// "@tcp(") selects the mysql driver; anything else is treated as a
// sqlite file path.
func InitDB(databaseURL string) *gorm.DB {
	var dialector gorm.Dialector
	if strings.Contains(databaseURL, "@tcp(") {
		dialector = mysql.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.Game{},
		&model.Account{},
		&model.ActivationCode{},
		&model.Order{},
		&model.OrderItem{},
		&model.Customer{},
		&model.WebhookEvent{},
	); err != nil {
		log.Fatal().Err(err).Msg("auto-migration failed")
	}

	return db
}
