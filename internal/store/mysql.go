package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLStore persists the document as a single row with an integer version
// column.  The conditional write is an UPDATE guarded by the version the
// caller read; MySQL's row lock linearizes concurrent writers and the
// guard rejects every writer holding a stale version.
type MySQLStore struct {
	db *sql.DB
}

// OpenMySQL connects to MySQL, verifies the connection and makes sure the
// document table exists.  The DSN is assembled the same way for every
// environment: utf8mb4, parseTime and UTC so times stay consistent.
func OpenMySQL(user, pass, host, port, name string) (*MySQLStore, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	const ddl = `CREATE TABLE IF NOT EXISTS documents (
        id      TINYINT UNSIGNED PRIMARY KEY,
        body    MEDIUMBLOB NOT NULL,
        version BIGINT UNSIGNED NOT NULL
    )`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, err
	}
	return &MySQLStore{db: db}, nil
}

// documentRowID is the fixed primary key of the single document row.
const documentRowID = 1

// Read selects the document row.  A missing row means no document exists
// yet and is reported as (nil, "").
func (s *MySQLStore) Read(ctx context.Context) ([]byte, string, error) {
	const q = `SELECT body, version FROM documents WHERE id = ?`
	var body []byte
	var version int64
	err := s.db.QueryRowContext(ctx, q, documentRowID).Scan(&body, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: mysql read: %v", ErrUnavailable, err)
	}
	return body, strconv.FormatInt(version, 10), nil
}

// Write inserts the row when the token is empty and otherwise updates it
// under a version guard.  A duplicate-key error on insert and an update
// touching zero rows are both conflicts: some other writer changed the
// document after the caller's read.
func (s *MySQLStore) Write(ctx context.Context, raw []byte, token, message string) (WriteOutcome, string, error) {
	if token == "" {
		const ins = `INSERT INTO documents (id, body, version) VALUES (?, ?, 1)`
		if _, err := s.db.ExecContext(ctx, ins, documentRowID, raw); err != nil {
			var me *mysql.MySQLError
			if errors.As(err, &me) && me.Number == 1062 { // ER_DUP_ENTRY
				return WriteConflict, "", nil
			}
			return WriteConflict, "", fmt.Errorf("%w: mysql insert: %v", ErrUnavailable, err)
		}
		return WriteCreated, "1", nil
	}

	version, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return WriteConflict, "", nil
	}
	const upd = `UPDATE documents SET body = ?, version = version + 1 WHERE id = ? AND version = ?`
	res, err := s.db.ExecContext(ctx, upd, raw, documentRowID, version)
	if err != nil {
		return WriteConflict, "", fmt.Errorf("%w: mysql update: %v", ErrUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return WriteConflict, "", fmt.Errorf("%w: mysql update: %v", ErrUnavailable, err)
	}
	if affected == 0 {
		return WriteConflict, "", nil
	}
	return WriteUpdated, strconv.FormatInt(version+1, 10), nil
}
