// Package postgres backs the user directory and rule store with a
// PostgreSQL database. Tables: mqttuser, blacklist and whitelist, with
// rules keyed by (userid, type) and soft deletion via deletedat.
package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/mqguard/mqguard/directory"
)

const (
	selectUserByName = `SELECT id, username, passwordhash, clientidprefix, clientid, validateclientid, throttleuser, monthlybytelimit
		FROM mqttuser
		WHERE username = $1 AND deletedat IS NULL`

	selectPrefixes = `SELECT clientidprefix
		FROM mqttuser
		WHERE clientidprefix IS NOT NULL AND clientidprefix <> '' AND deletedat IS NULL`

	selectRules = `SELECT id, userid, type, value
		FROM %TABLE%
		WHERE userid = $1 AND type = $2 AND deletedat IS NULL
		ORDER BY createdat, id`
)

// Store implements directory.UserDirectory and directory.RuleStore.
type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UserByName(ctx context.Context, name string) (*directory.User, error) {
	row := s.db.QueryRowContext(ctx, selectUserByName, name)

	var u directory.User
	var prefix, clientID sql.NullString
	var limit sql.NullInt64
	err := row.Scan(&u.ID, &u.UserName, &u.PasswordHash, &prefix, &clientID,
		&u.ValidateClientID, &u.ThrottleUser, &limit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.ClientIDPrefix = prefix.String
	u.ClientID = clientID.String
	if limit.Valid {
		v := limit.Int64
		u.MonthlyByteLimit = &v
	}
	return &u, nil
}

func (s *Store) ClientIDPrefixes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectPrefixes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefixes []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, rows.Err()
}

func (s *Store) Rules(ctx context.Context, userID string, dir directory.Direction, pol directory.Polarity) ([]directory.Rule, error) {
	table := "blacklist"
	if pol == directory.Whitelist {
		table = "whitelist"
	}
	query := strings.Replace(selectRules, "%TABLE%", table, 1)

	rows, err := s.db.QueryContext(ctx, query, userID, int(dir))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []directory.Rule
	for rows.Next() {
		var r directory.Rule
		var typ int
		if err := rows.Scan(&r.ID, &r.UserID, &typ, &r.Filter); err != nil {
			return nil, err
		}
		r.Direction = directory.Direction(typ)
		r.Polarity = pol
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
