package db

import "fmt"

// Provider hands repositories the database they run against.
type Provider interface {
	Current() Database
}

// Manager is the Provider of a service process: one database opened at
// startup and closed on shutdown.
type Manager struct {
	database Database
}

func NewManager(database Database) *Manager {
	return &Manager{database: database}
}

func (m *Manager) Current() Database {
	if m == nil {
		return nil
	}
	return m.database
}

// CurrentDatabase returns the database of provider, failing when the
// service was started without one.
func CurrentDatabase(provider Provider) (Database, error) {
	if provider == nil {
		return nil, fmt.Errorf("database provider is nil")
	}
	database := provider.Current()
	if database == nil {
		return nil, fmt.Errorf("database is nil")
	}
	return database, nil
}
