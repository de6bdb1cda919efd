package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsas/internal/db"
	"dsas/internal/db/dbtest"
	"dsas/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := db.Open("oracle", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestMigrate_CreatesSchema(t *testing.T) {
	gormDB := dbtest.New(t)

	m := gormDB.Migrator()
	for _, table := range model.All() {
		assert.True(t, m.HasTable(table))
	}
	assert.True(t, m.HasIndex(&model.Assignment{}, "idx_assignment_patient"))
	assert.True(t, m.HasIndex(&model.Assignment{}, "idx_assignment_pair"))
}

func TestReset_DropsTables(t *testing.T) {
	gormDB := dbtest.New(t)

	require.NoError(t, db.Reset(gormDB))
	assert.False(t, gormDB.Migrator().HasTable(&model.User{}))

	require.NoError(t, db.Migrate(gormDB))
	assert.True(t, gormDB.Migrator().HasTable(&model.User{}))
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"plain file", "dsas.db", "dsas.db?_foreign_keys=on"},
		{"with params", "file:x?mode=memory", "file:x?mode=memory&_foreign_keys=on"},
		{"already set", "dsas.db?_foreign_keys=off", "dsas.db?_foreign_keys=off"},
		{"short form", "dsas.db?_fk=1", "dsas.db?_fk=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, db.SQLiteDSN(tt.dsn))
		})
	}
}

func TestOpen_SQLiteForeignKeysOnEveryConnection(t *testing.T) {
	dsn := fmt.Sprintf("file:fk_%d?mode=memory&cache=shared", time.Now().UnixNano())
	gormDB, err := db.Open("sqlite", dsn)
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(4)

	ctx := context.Background()
	conns := make([]*sql.Conn, 0, 3)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()
	for i := 0; i < 3; i++ {
		conn, err := sqlDB.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, conn)
	}

	for i, conn := range conns {
		var on int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on))
		assert.Equal(t, 1, on, "connection %d", i)
	}
}
