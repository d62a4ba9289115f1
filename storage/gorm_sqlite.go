// storage/gorm_sqlite.go
package storage

import (
	"errors"
	"log"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixed row keys, one row per stored value
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyLocale       = "locale"
	keyColorScheme  = "color_scheme"
)

type entry struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// GormSQLite stores client state in a local sqlite file, the durable
// equivalent of the browser's localStorage.
type GormSQLite struct {
	db *gorm.DB
}

func NewGormSQLite(path string) (*GormSQLite, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, err
	}

	return &GormSQLite{db: db}, nil
}

func (s *GormSQLite) put(key, value string) error {
	return s.db.Save(&entry{Key: key, Value: value}).Error
}

func (s *GormSQLite) get(key string) (string, error) {
	var e entry
	if err := s.db.First(&e, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return e.Value, nil
}

func (s *GormSQLite) SaveTokens(pair TokenPair) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&entry{Key: keyAccessToken, Value: pair.AccessToken}).Error; err != nil {
			return err
		}
		return tx.Save(&entry{Key: keyRefreshToken, Value: pair.RefreshToken}).Error
	})
}

func (s *GormSQLite) LoadTokens() (TokenPair, error) {
	access, err := s.get(keyAccessToken)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.get(keyRefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *GormSQLite) ClearTokens() error {
	return s.db.Delete(&entry{}, "key IN ?", []string{keyAccessToken, keyRefreshToken}).Error
}

func (s *GormSQLite) SaveSettings(set Settings) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&entry{Key: keyLocale, Value: set.Locale}).Error; err != nil {
			return err
		}
		return tx.Save(&entry{Key: keyColorScheme, Value: set.ColorScheme}).Error
	})
}

func (s *GormSQLite) LoadSettings() (Settings, error) {
	locale, err := s.get(keyLocale)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Settings{}, err
	}
	scheme, err := s.get(keyColorScheme)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Settings{}, err
	}
	return Settings{Locale: locale, ColorScheme: scheme}, nil
}

func (s *GormSQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
