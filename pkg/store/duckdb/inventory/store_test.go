package inventory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	store, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:    db,
		store: store,
	}
}

func sampleResources() []domain.Resource {
	return []domain.Resource{
		{ID: "vpc-1", Kind: domain.KindVPC, Name: "main", Region: "ap-northeast-1", Attributes: map[string]any{
			domain.AttrCidrBlock: "10.0.0.0/16",
		}},
		{ID: "subnet-1", Kind: domain.KindSubnet, Region: "ap-northeast-1", Attributes: map[string]any{
			domain.AttrVpcID:               "vpc-1",
			domain.AttrMapPublicIPOnLaunch: true,
			"available_ip_address_count":   int64(250),
			"security_group_ids":           []string{"sg-1", "sg-2"},
		}},
		{ID: "subnet-0", Kind: domain.KindSubnet, Region: "ap-northeast-1"},
	}
}

func TestInventoryStore_SaveAndLoad(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	run := domain.Run{ID: "run-1", Source: "aws", Profile: "dev", Region: "ap-northeast-1", AccountID: "123456789012", CreatedAt: created}
	edges := []domain.Edge{{From: "vpc-1", To: "subnet-1", Relation: domain.RelationContains}}
	require.NoError(t, f.store.SaveRun(ctx, run, sampleResources(), edges))

	t.Run("resources keep order and attribute types", func(t *testing.T) {
		got, err := f.store.LoadResources(ctx, "run-1")
		require.NoError(t, err)

		require.Len(t, got[domain.KindSubnet], 2)
		assert.Equal(t, "subnet-1", got[domain.KindSubnet][0].ID)
		assert.Equal(t, "subnet-0", got[domain.KindSubnet][1].ID)
		assert.Equal(t, map[string]any{}, got[domain.KindSubnet][1].Attributes)

		subnet := got[domain.KindSubnet][0]
		assert.Equal(t, "vpc-1", subnet.Str(domain.AttrVpcID))
		assert.Equal(t, true, subnet.Attributes[domain.AttrMapPublicIPOnLaunch])
		assert.Equal(t, int64(250), subnet.Attributes["available_ip_address_count"])
		assert.Equal(t, []string{"sg-1", "sg-2"}, subnet.Attributes["security_group_ids"])
		assert.Equal(t, "main", got[domain.KindVPC][0].Name)
	})

	t.Run("edges", func(t *testing.T) {
		var from, to, relation string
		err := f.db.QueryRowContext(ctx,
			`SELECT from_id, to_id, relation FROM edges WHERE run_id = ?`, "run-1").Scan(&from, &to, &relation)
		require.NoError(t, err)
		assert.Equal(t, []string{"vpc-1", "subnet-1", "CONTAINS"}, []string{from, to, relation})
	})

	t.Run("list runs", func(t *testing.T) {
		later := domain.Run{ID: "run-2", Source: "snapshot", CreatedAt: created.Add(time.Hour)}
		require.NoError(t, f.store.SaveRun(ctx, later, nil, nil))

		runs, err := f.store.ListRuns(ctx)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "run-2", runs[0].ID)
		assert.Equal(t, "", runs[0].Profile)
		assert.Empty(t, runs[0].Kinds)

		assert.Equal(t, "run-1", runs[1].ID)
		assert.Equal(t, 3, runs[1].Resources)
		assert.Equal(t, 1, runs[1].Edges)
		assert.Equal(t, "123456789012", runs[1].AccountID)
		assert.True(t, created.Equal(runs[1].CreatedAt))
		assert.Equal(t, map[domain.Kind]int{domain.KindVPC: 1, domain.KindSubnet: 2}, runs[1].Kinds)
	})

	t.Run("duplicate run id", func(t *testing.T) {
		err := f.store.SaveRun(ctx, run, nil, nil)
		assert.Error(t, err)
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := f.store.LoadResources(ctx, "missing")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}

func TestInventoryStore_SaveRunRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewStore(db)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare("INSERT INTO resources")
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = store.SaveRun(context.Background(), domain.Run{ID: "run-1", Source: "aws", CreatedAt: time.Now()}, sampleResources()[:1], nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert resource vpc-1: disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStore(t *testing.T) {
	_, err := NewStore(nil)
	assert.EqualError(t, err, "database connection is nil")

	f := setupFixture(t)
	assert.EqualError(t, f.store.SaveRun(context.Background(), domain.Run{}, nil, nil), "run id is required")
}
