package repository

import (
	"context"
	"fmt"
	"strings"

	"matholymp/internal/common/db"
)

// schema is written in the subset of SQL shared by MySQL, PostgreSQL and
// SQLite; {{pk}} stands for the dialect's generated primary key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS event (
	id INTEGER NOT NULL PRIMARY KEY,
	registration_enabled INTEGER NOT NULL,
	gold INTEGER NULL,
	silver INTEGER NULL,
	bronze INTEGER NULL
)`,
	`CREATE TABLE IF NOT EXISTS countries (
	id {{pk}},
	code VARCHAR(16) NOT NULL,
	active_code VARCHAR(16) NULL UNIQUE,
	name VARCHAR(255) NOT NULL,
	official INTEGER NULL,
	generic_url VARCHAR(255) NOT NULL,
	flag_file_id BIGINT NULL,
	contact_emails TEXT NOT NULL,
	retired INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS roles (
	id {{pk}},
	name VARCHAR(128) NOT NULL UNIQUE,
	is_admin INTEGER NOT NULL,
	secondary_ok INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS genders (
	id {{pk}},
	name VARCHAR(128) NOT NULL UNIQUE,
	sort_order INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tshirts (
	id {{pk}},
	name VARCHAR(128) NOT NULL UNIQUE,
	sort_order INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS languages (
	id {{pk}},
	name VARCHAR(128) NOT NULL UNIQUE,
	sort_order INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS arrivals (
	id {{pk}},
	name VARCHAR(128) NOT NULL UNIQUE,
	sort_order INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS people (
	id {{pk}},
	country_id BIGINT NOT NULL,
	given_name VARCHAR(255) NOT NULL,
	family_name VARCHAR(255) NOT NULL,
	gender VARCHAR(128) NOT NULL,
	primary_role VARCHAR(128) NOT NULL,
	other_roles TEXT NOT NULL,
	guide_for TEXT NOT NULL,
	languages TEXT NOT NULL,
	date_of_birth VARCHAR(10) NOT NULL,
	diet TEXT NOT NULL,
	tshirt VARCHAR(128) NOT NULL,
	arrival_place VARCHAR(128) NOT NULL,
	arrival_date VARCHAR(10) NOT NULL,
	arrival_time VARCHAR(5) NOT NULL,
	arrival_flight VARCHAR(128) NOT NULL,
	departure_place VARCHAR(128) NOT NULL,
	departure_date VARCHAR(10) NOT NULL,
	departure_time VARCHAR(5) NOT NULL,
	departure_flight VARCHAR(128) NOT NULL,
	room_number VARCHAR(128) NOT NULL,
	phone_number VARCHAR(128) NOT NULL,
	passport_number VARCHAR(128) NOT NULL,
	nationality VARCHAR(128) NOT NULL,
	event_photos_consent INTEGER NULL,
	generic_url VARCHAR(255) NOT NULL,
	extra_awards TEXT NOT NULL,
	scores TEXT NOT NULL,
	photo_file_id BIGINT NULL,
	consent_form_file_id BIGINT NULL,
	retired INTEGER NOT NULL,
	created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS users (
	id {{pk}},
	username VARCHAR(128) NOT NULL,
	active_username VARCHAR(128) NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	country_id BIGINT NOT NULL,
	roles TEXT NOT NULL,
	retired INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS rss (
	id {{pk}},
	country_id BIGINT NULL,
	title VARCHAR(255) NOT NULL,
	body TEXT NOT NULL,
	guid VARCHAR(64) NOT NULL,
	created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS files (
	id {{pk}},
	name VARCHAR(255) NOT NULL,
	content_type VARCHAR(128) NOT NULL,
	object_key VARCHAR(255) NOT NULL,
	size BIGINT NOT NULL,
	created_at BIGINT NOT NULL
)`,
}

// Migrate creates every table that does not exist yet.
func Migrate(ctx context.Context, database db.Database) error {
	key := database.Dialect().AutoIncrementKey()
	for _, stmt := range schema {
		if _, err := database.Exec(ctx, strings.ReplaceAll(stmt, "{{pk}}", key)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
