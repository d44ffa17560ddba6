package db

import "database/sql"

// DB wraps *sql.DB so repositories depend on a single local type.
type DB struct {
	*sql.DB
}
