package testsupport

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteMemoryDB opens a shared-cache in-memory database. Connections
// opened with the same name see the same data.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	if name == "" {
		name = "postlint"
	}
	return sql.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared&_fk=1")
}
