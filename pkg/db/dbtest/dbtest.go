// Package dbtest opens throwaway in-memory databases for service tests.
package dbtest

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns an isolated in-memory sqlite database. Locking clauses
// are stripped because sqlite serializes writers anyway and rejects
// FOR UPDATE syntax.
func Open(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
			newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	if err := conn.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripForUpdate); err != nil {
		t.Fatalf("register query callback: %v", err)
	}
	if err := conn.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripForUpdate); err != nil {
		t.Fatalf("register row callback: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if len(models) > 0 {
		if err := conn.AutoMigrate(models...); err != nil {
			t.Fatalf("auto migrate: %v", err)
		}
	}

	return conn
}
