package inventory

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb"
)

var ErrRunNotFound = errors.New("run not found")

// Store keeps inventories of resources and their edges, one per run.
type Store interface {
	SaveRun(ctx context.Context, run domain.Run, resources []domain.Resource, edges []domain.Edge) error
	ListRuns(ctx context.Context) ([]domain.Run, error)
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	LoadResources(ctx context.Context, runID string) (map[domain.Kind][]domain.Resource, error)
}

type inventoryStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &inventoryStore{
		db: db,
	}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (s *inventoryStore) conn(ctx context.Context) execer {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *inventoryStore) SaveRun(ctx context.Context, run domain.Run, resources []domain.Resource, edges []domain.Edge) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		conn := s.conn(ctx)

		_, err := conn.ExecContext(ctx, `
			INSERT INTO runs (id, source, profile, region, account_id, created_at, resource_count, edge_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Source, run.Profile, run.Region, run.AccountID, run.CreatedAt.UTC(), len(resources), len(edges),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		if err := s.insertResources(ctx, conn, run.ID, resources); err != nil {
			return err
		}
		return s.insertEdges(ctx, conn, run.ID, edges)
	})
}

func (s *inventoryStore) insertResources(ctx context.Context, conn execer, runID string, resources []domain.Resource) error {
	if len(resources) == 0 {
		return nil
	}
	stmt, err := conn.PrepareContext(ctx, `
		INSERT INTO resources (run_id, id, kind, name, region, position, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range resources {
		attributes, err := json.Marshal(r.Attributes)
		if err != nil {
			return fmt.Errorf("marshal attributes of %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, r.ID, string(r.Kind), r.Name, r.Region, i, string(attributes)); err != nil {
			return fmt.Errorf("insert resource %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *inventoryStore) insertEdges(ctx context.Context, conn execer, runID string, edges []domain.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	stmt, err := conn.PrepareContext(ctx, `
		INSERT INTO edges (run_id, from_id, to_id, relation) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, runID, e.From, e.To, string(e.Relation)); err != nil {
			return fmt.Errorf("insert edge %s: %w", e, err)
		}
	}
	return nil
}

func (s *inventoryStore) ListRuns(ctx context.Context) ([]domain.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, profile, region, account_id, created_at, resource_count, edge_count
		FROM runs
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	kinds, err := s.kindCounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		runs[i].Kinds = kinds[runs[i].ID]
	}
	return runs, nil
}

func (s *inventoryStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, profile, region, account_id, created_at, resource_count, edge_count
		FROM runs
		WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	kinds, err := s.kindCounts(ctx)
	if err != nil {
		return nil, err
	}
	run.Kinds = kinds[run.ID]
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var (
		run                        domain.Run
		profile, region, accountID sql.NullString
	)
	err := row.Scan(&run.ID, &run.Source, &profile, &region, &accountID, &run.CreatedAt, &run.Resources, &run.Edges)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Profile = profile.String
	run.Region = region.String
	run.AccountID = accountID.String
	return &run, nil
}

func (s *inventoryStore) kindCounts(ctx context.Context) (map[string]map[domain.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, kind, COUNT(*) FROM resources GROUP BY run_id, kind`)
	if err != nil {
		return nil, fmt.Errorf("query kind counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[domain.Kind]int)
	for rows.Next() {
		var (
			runID, kind string
			count       int
		)
		if err := rows.Scan(&runID, &kind, &count); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		if out[runID] == nil {
			out[runID] = make(map[domain.Kind]int)
		}
		out[runID][domain.Kind(kind)] = count
	}
	return out, rows.Err()
}

func (s *inventoryStore) LoadResources(ctx context.Context, runID string) (map[domain.Kind][]domain.Resource, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, region, attributes
		FROM resources
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.Kind][]domain.Resource)
	for rows.Next() {
		var (
			r                          domain.Resource
			kind                       string
			name, region, attributeRaw sql.NullString
		)
		if err := rows.Scan(&r.ID, &kind, &name, &region, &attributeRaw); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		r.Kind = domain.Kind(kind)
		r.Name = name.String
		r.Region = region.String
		r.Attributes, err = decodeAttributes(attributeRaw.String)
		if err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", r.ID, err)
		}
		out[r.Kind] = append(out[r.Kind], r)
	}
	return out, rows.Err()
}

// decodeAttributes restores integers as int64 and other numbers as float64.
func decodeAttributes(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" || raw == "null" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return nil, err
	}
	for k, v := range attrs {
		attrs[k] = numbers(v)
	}
	return domain.NormalizeAttributes(attrs), nil
}

func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = numbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = numbers(t[k])
		}
		return t
	default:
		return v
	}
}
