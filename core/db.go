package core

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool with conservative defaults.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// schemaStatements create the four tables. author.id is not generated: it is
// assigned from the login row created in the same transaction. follow has no
// uniqueness constraint on purpose; duplicate edges are valid rows.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS login (
		id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		username varchar(140) NOT NULL UNIQUE,
		password varchar(140) NOT NULL,
		salt varchar(140) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS author (
		id bigint PRIMARY KEY,
		name varchar(140) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS message (
		id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		idauthor bigint NOT NULL REFERENCES author(id),
		message varchar(140) NOT NULL,
		time timestamptz NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS follow (
		idauthor bigint NOT NULL,
		idfollower bigint NOT NULL
	)`,
}

// InitSchema creates the tables if they do not exist. Init is best-effort:
// failures are logged and startup continues, so a pre-provisioned database
// never blocks the process.
func InitSchema(ctx context.Context, db *pgxpool.Pool) {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			log.Printf("schema init: %v", err)
		}
	}
}
