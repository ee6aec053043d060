package kvstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DriverNameSQLite identifies the SQLite driver implementation.
	DriverNameSQLite = "sqlite"

	errorMessageMissingDatabaseDriverName = "kvstore: missing database driver name"
	errorMessageUnsupportedDatabaseDriver = "kvstore: unsupported database driver"
	errorMessageMissingDataSourceName     = "kvstore: missing database data source name"
	errorMessageOpenDatabase              = "kvstore: open database"
	errorMessageOpenSQLiteDatabase        = "kvstore: open sqlite database"
	errorMessageReadEntry                 = "kvstore: read entry"
	errorMessageWriteEntry                = "kvstore: write entry"
	errorMessageDeleteEntry               = "kvstore: delete entry"
)

var (
	// ErrMissingDatabaseDriverName indicates the database driver name configuration was omitted.
	ErrMissingDatabaseDriverName = errors.New(errorMessageMissingDatabaseDriverName)
	// ErrUnsupportedDatabaseDriver indicates the provided database driver is not supported.
	ErrUnsupportedDatabaseDriver = errors.New(errorMessageUnsupportedDatabaseDriver)
	// ErrMissingDataSourceName indicates the database data source name configuration was omitted.
	ErrMissingDataSourceName = errors.New(errorMessageMissingDataSourceName)
)

type databaseOpener func(Config) (*gorm.DB, error)

var databaseOpeners = map[string]databaseOpener{
	DriverNameSQLite: openSQLiteDatabase,
}

// Config captures database connection configuration.
type Config struct {
	DriverName     string
	DataSourceName string
}

// KVEntry is one persisted key-value pair.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:200"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// OpenDatabase opens a database connection using the configured driver and
// data source name.
func OpenDatabase(configuration Config) (*gorm.DB, error) {
	trimmedDriverName := strings.TrimSpace(configuration.DriverName)
	if trimmedDriverName == "" {
		return nil, ErrMissingDatabaseDriverName
	}

	opener, driverSupported := databaseOpeners[trimmedDriverName]
	if !driverSupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabaseDriver, trimmedDriverName)
	}

	database, openErr := opener(Config{
		DriverName:     trimmedDriverName,
		DataSourceName: strings.TrimSpace(configuration.DataSourceName),
	})
	if openErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageOpenDatabase, openErr)
	}

	return database, nil
}

func openSQLiteDatabase(configuration Config) (*gorm.DB, error) {
	if configuration.DataSourceName == "" {
		return nil, ErrMissingDataSourceName
	}

	database, openErr := gorm.Open(sqlite.Open(configuration.DataSourceName), &gorm.Config{})
	if openErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageOpenSQLiteDatabase, openErr)
	}

	return database, nil
}

// AutoMigrate runs database migrations for the persistence layer models.
func AutoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(&KVEntry{})
}

// NewID generates a new globally unique identifier.
func NewID() string {
	return uuid.NewString()
}

// DatabaseStore is a key-value Store backed by a relational database.
type DatabaseStore struct {
	database *gorm.DB
}

// NewDatabaseStore wraps an opened database in the Store interface.
func NewDatabaseStore(database *gorm.DB) *DatabaseStore {
	return &DatabaseStore{database: database}
}

// Get returns the stored value and whether the key was present.
func (store *DatabaseStore) Get(key string) (string, bool, error) {
	var entry KVEntry
	queryErr := store.database.First(&entry, "key = ?", key).Error
	if errors.Is(queryErr, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if queryErr != nil {
		return "", false, fmt.Errorf("%s: %w", errorMessageReadEntry, queryErr)
	}
	return entry.Value, true, nil
}

// Set writes the value under the key, replacing any previous value.
func (store *DatabaseStore) Set(key string, value string) error {
	entry := KVEntry{Key: key, Value: value}
	saveErr := store.database.Save(&entry).Error
	if saveErr != nil {
		return fmt.Errorf("%s: %w", errorMessageWriteEntry, saveErr)
	}
	return nil
}

// SetMany writes every entry inside one database transaction.
func (store *DatabaseStore) SetMany(entries map[string]string) error {
	transactionErr := store.database.Transaction(func(transaction *gorm.DB) error {
		for key, value := range entries {
			entry := KVEntry{Key: key, Value: value}
			if saveErr := transaction.Save(&entry).Error; saveErr != nil {
				return saveErr
			}
		}
		return nil
	})
	if transactionErr != nil {
		return fmt.Errorf("%s: %w", errorMessageWriteEntry, transactionErr)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (store *DatabaseStore) Delete(key string) error {
	deleteErr := store.database.Delete(&KVEntry{}, "key = ?", key).Error
	if deleteErr != nil {
		return fmt.Errorf("%s: %w", errorMessageDeleteEntry, deleteErr)
	}
	return nil
}
