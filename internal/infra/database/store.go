package database

import "database/sql"

// Store is the SQL-backed persistence for notifications and subjects.
type Store struct {
	*SQLNotificationRepository
	*SQLSubjectRepository
}

func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		SQLNotificationRepository: NewSQLNotificationRepository(db, dialect),
		SQLSubjectRepository:      NewSQLSubjectRepository(db, dialect),
	}
}
