package sqlstore

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

type dialect struct {
	name string
	// insertIgnore prefixes an INSERT that silently skips primary key conflicts
	insertIgnore string
	schema       []string
}

// ignorable reports schema errors that mean the object already exists
func (d dialect) ignorable(err error) bool {
	var myErr *mysql.MySQLError
	// 1061: duplicate key name, raised by CREATE INDEX on an existing index
	return errors.As(err, &myErr) && myErr.Number == 1061
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:         DriverSQLite,
		insertIgnore: "INSERT OR IGNORE",
		schema:       sqliteSchema,
	},
	DriverMySQL: {
		name:         DriverMySQL,
		insertIgnore: "INSERT IGNORE",
		schema:       mysqlSchema,
	},
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		title TEXT NOT NULL,
		property_type TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		neighborhood TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		bedrooms INTEGER NOT NULL DEFAULT 0,
		bathrooms INTEGER NOT NULL DEFAULT 0,
		parking_spots INTEGER NOT NULL DEFAULT 0,
		area_m2 REAL NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		highlights TEXT NOT NULL DEFAULT '[]',
		amenities TEXT NOT NULL DEFAULT '[]',
		assistant_note TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS knowledge_entries (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		property_id TEXT,
		category TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_knowledge_scope ON knowledge_entries(property_id, org_id, priority)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		owner_org_id TEXT NOT NULL,
		reseller_org_id TEXT NOT NULL DEFAULT '',
		contact_name TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		contact_context TEXT NOT NULL DEFAULT '',
		interest_level TEXT NOT NULL DEFAULT '',
		qualification_score INTEGER NOT NULL DEFAULT 0,
		lead_promoted INTEGER NOT NULL DEFAULT 0,
		lead_id TEXT NOT NULL DEFAULT '',
		scheduling_created INTEGER NOT NULL DEFAULT 0,
		scheduling_id TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL UNIQUE REFERENCES sessions(id),
		property_id TEXT NOT NULL,
		owner_org_id TEXT NOT NULL,
		reseller_org_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		interest_level TEXT NOT NULL DEFAULT '',
		qualification_score INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scheduling_requests (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL UNIQUE REFERENCES sessions(id),
		property_id TEXT NOT NULL,
		owner_org_id TEXT NOT NULL,
		reseller_org_id TEXT NOT NULL DEFAULT '',
		lead_id TEXT,
		contact_name TEXT NOT NULL,
		contact_email TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		option_1 INTEGER NOT NULL,
		option_2 INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
}

// MySQL cannot index or default TEXT columns, so keys are VARCHAR and every
// insert supplies long text columns explicitly.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id VARCHAR(128) PRIMARY KEY,
		org_id VARCHAR(128) NOT NULL,
		title VARCHAR(255) NOT NULL,
		property_type VARCHAR(64) NOT NULL DEFAULT '',
		address VARCHAR(255) NOT NULL DEFAULT '',
		neighborhood VARCHAR(128) NOT NULL DEFAULT '',
		city VARCHAR(128) NOT NULL DEFAULT '',
		state VARCHAR(64) NOT NULL DEFAULT '',
		price DOUBLE NOT NULL DEFAULT 0,
		bedrooms INT NOT NULL DEFAULT 0,
		bathrooms INT NOT NULL DEFAULT 0,
		parking_spots INT NOT NULL DEFAULT 0,
		area_m2 DOUBLE NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		highlights TEXT NOT NULL,
		amenities TEXT NOT NULL,
		assistant_note TEXT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS knowledge_entries (
		id VARCHAR(128) PRIMARY KEY,
		org_id VARCHAR(128) NOT NULL,
		property_id VARCHAR(128) NULL,
		category VARCHAR(128) NOT NULL DEFAULT '',
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		priority INT NOT NULL DEFAULT 0,
		active TINYINT(1) NOT NULL DEFAULT 1,
		created_at BIGINT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE INDEX idx_knowledge_scope ON knowledge_entries(property_id, org_id, priority)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR(128) PRIMARY KEY,
		property_id VARCHAR(128) NOT NULL,
		owner_org_id VARCHAR(128) NOT NULL,
		reseller_org_id VARCHAR(128) NOT NULL DEFAULT '',
		contact_name VARCHAR(255) NOT NULL DEFAULT '',
		contact_email VARCHAR(255) NOT NULL DEFAULT '',
		contact_phone VARCHAR(32) NOT NULL DEFAULT '',
		contact_context TEXT NOT NULL,
		interest_level VARCHAR(16) NOT NULL DEFAULT '',
		qualification_score INT NOT NULL DEFAULT 0,
		lead_promoted TINYINT(1) NOT NULL DEFAULT 0,
		lead_id VARCHAR(64) NOT NULL DEFAULT '',
		scheduling_created TINYINT(1) NOT NULL DEFAULT 0,
		scheduling_id VARCHAR(64) NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS messages (
		seq BIGINT AUTO_INCREMENT PRIMARY KEY,
		id VARCHAR(64) NOT NULL UNIQUE,
		session_id VARCHAR(128) NOT NULL,
		role VARCHAR(16) NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT NULL,
		created_at BIGINT NOT NULL,
		INDEX idx_messages_session (session_id, seq),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS leads (
		id VARCHAR(64) PRIMARY KEY,
		session_id VARCHAR(128) NOT NULL UNIQUE,
		property_id VARCHAR(128) NOT NULL,
		owner_org_id VARCHAR(128) NOT NULL,
		reseller_org_id VARCHAR(128) NOT NULL DEFAULT '',
		name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(32) NOT NULL DEFAULT '',
		interest_level VARCHAR(16) NOT NULL DEFAULT '',
		qualification_score INT NOT NULL DEFAULT 0,
		notes TEXT NOT NULL,
		source VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS scheduling_requests (
		id VARCHAR(64) PRIMARY KEY,
		session_id VARCHAR(128) NOT NULL UNIQUE,
		property_id VARCHAR(128) NOT NULL,
		owner_org_id VARCHAR(128) NOT NULL,
		reseller_org_id VARCHAR(128) NOT NULL DEFAULT '',
		lead_id VARCHAR(64) NULL,
		contact_name VARCHAR(255) NOT NULL,
		contact_email VARCHAR(255) NOT NULL DEFAULT '',
		contact_phone VARCHAR(32) NOT NULL DEFAULT '',
		option_1 BIGINT NOT NULL,
		option_2 BIGINT NOT NULL,
		notes TEXT NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
