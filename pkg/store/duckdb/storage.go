package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb"
)

const RunsTableSchema = `
	CREATE TABLE IF NOT EXISTS runs (
		id VARCHAR NOT NULL PRIMARY KEY,
		source VARCHAR NOT NULL,
		profile VARCHAR,
		region VARCHAR,
		account_id VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		resource_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0
	);
`

const ResourcesTableSchema = `
	CREATE TABLE IF NOT EXISTS resources (
		run_id VARCHAR NOT NULL,
		id VARCHAR NOT NULL,
		kind VARCHAR NOT NULL,
		name VARCHAR,
		region VARCHAR,
		position INTEGER NOT NULL,
		attributes VARCHAR,
		PRIMARY KEY (run_id, id)
	);
`

const EdgesTableSchema = `
	CREATE TABLE IF NOT EXISTS edges (
		run_id VARCHAR NOT NULL,
		from_id VARCHAR NOT NULL,
		to_id VARCHAR NOT NULL,
		relation VARCHAR NOT NULL,
		PRIMARY KEY (run_id, from_id, to_id, relation)
	);
`

var bootQueries = []string{
	RunsTableSchema,
	ResourcesTableSchema,
	EdgesTableSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to open inventory database %s: %w", settings.DbPath, err)
	}

	db := sql.OpenDB(c)
	if settings.DbPath == ":memory:" || settings.DbPath == "" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}
