package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// KVModel is the GORM model for the kv_store table
type KVModel struct {
	Key   string `gorm:"column:key;primaryKey;size:191"`
	Value string `gorm:"column:value;type:longtext"`
}

// TableName specifies the table name for GORM
// By default, GORM would pluralize to "kv_models"
func (KVModel) TableName() string {
	return "kv_store"
}

// MySQLStore implements Store interface using MySQL with GORM
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore creates a new MySQL store using GORM
//
// Parameters:
//   - dsn: Data Source Name (connection string)
//     Format: user:password@tcp(host:port)/dbname?parseTime=true
//
// Returns:
//   - *MySQLStore: pointer to the created store
//   - error: any error that occurred during connection or migration
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	// Every write is a single statement, no need for GORM's implicit transaction
	config := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	}

	db, err := gorm.Open(mysql.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL with GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	if err := db.AutoMigrate(&KVModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_store table: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// Get implements the Store interface
func (s *MySQLStore) Get(ctx context.Context, key string) (string, error) {
	var record KVModel

	// SELECT * FROM kv_store WHERE `key` = ? ORDER BY ... LIMIT 1
	result := s.db.WithContext(ctx).Where("`key` = ?", key).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("database query failed: %w", result.Error)
	}

	return record.Value, nil
}

// Set implements the Store interface
// INSERT ... ON DUPLICATE KEY UPDATE value = VALUES(value)
func (s *MySQLStore) Set(ctx context.Context, key, value string) error {
	record := KVModel{Key: key, Value: value}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&record)
	if result.Error != nil {
		return fmt.Errorf("database upsert failed: %w", result.Error)
	}
	return nil
}

// Delete implements the Store interface
func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where("`key` = ?", key).Delete(&KVModel{})
	if result.Error != nil {
		return fmt.Errorf("database delete failed: %w", result.Error)
	}
	return nil
}

// Close closes the database connection
// Should be called when the application shuts down
func (s *MySQLStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
