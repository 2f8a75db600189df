// Copyright (c) 2026 Bruce Schaller. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// SQLStore persists the register window in a SQL table, one row per
// register.
// Note: the driver (e.g. sqlite3) must be imported by the binary.
type SQLStore struct {
	driver string
	dsn    string
	db     *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(driver, dsn string) *SQLStore {
	return &SQLStore{
		driver: driver,
		dsn:    dsn,
	}
}

// Load connects to the database and loads the persisted window.
func (s *SQLStore) Load(quantity uint16) ([]uint16, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open db: %w", err)
	}
	s.db = db

	if err := s.initSchema(); err != nil {
		db.Close()
		s.db = nil
		return nil, fmt.Errorf("store: failed to init schema: %w", err)
	}

	regs := make([]uint16, quantity)

	rows, err := db.Query("SELECT idx, value FROM poll_snapshot")
	if err != nil {
		db.Close()
		s.db = nil
		return nil, fmt.Errorf("store: failed to query snapshot: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx, val int
		if err := rows.Scan(&idx, &val); err != nil {
			continue
		}
		if idx < 0 || idx >= int(quantity) {
			continue
		}
		regs[idx] = uint16(val)
	}

	return regs, rows.Err()
}

func (s *SQLStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS poll_snapshot (
		idx INTEGER PRIMARY KEY,
		value INTEGER
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save upserts the whole window.
func (s *SQLStore) Save(regs []uint16) error {
	if s.db == nil {
		return fmt.Errorf("store: snapshot not loaded")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for i, v := range regs {
		if _, err := tx.Exec(upsertQuery, i, int64(v)); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: failed to persist register %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// OnChange upserts the changed register. Writes are synchronous so a
// power failure loses at most the change being written.
func (s *SQLStore) OnChange(index uint16, value uint16) {
	if s.db == nil {
		return
	}
	if _, err := s.db.Exec(upsertQuery, int(index), int64(value)); err != nil {
		slog.Error("store: failed to persist register", "idx", index, "err", err)
	}
}

const upsertQuery = "INSERT INTO poll_snapshot (idx, value) VALUES (?, ?) " +
	"ON CONFLICT(idx) DO UPDATE SET value=excluded.value"

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
