// Package repository stores registration data in a relational database.
// Every method takes an optional transaction; a nil tx runs against the
// provider's current database.
package repository

import "matholymp/internal/common/db"

// Repositories bundles the repositories of one database.
type Repositories struct {
	Events    EventRepository
	Countries CountryRepository
	People    PersonRepository
	Users     UserRepository
	Lookups   LookupRepository
	RSS       RSSRepository
	Files     FileRepository
}

func New(provider db.Provider) *Repositories {
	return &Repositories{
		Events:    NewEventRepository(provider),
		Countries: NewCountryRepository(provider),
		People:    NewPersonRepository(provider),
		Users:     NewUserRepository(provider),
		Lookups:   NewLookupRepository(provider),
		RSS:       NewRSSRepository(provider),
		Files:     NewFileRepository(provider),
	}
}
