package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")

	// Serialize access so concurrent tests exercise the row-count arbitration
	// rather than sqlite busy errors.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createPendingInvoiceTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE pending_invoices (
		payment_hash TEXT PRIMARY KEY,
		requester_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`)
}
