package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertStmtPerDialect(t *testing.T) {
	mysql := insertStmt("mysql")
	assert.Contains(t, mysql, "INSERT IGNORE INTO payment_requests")
	assert.NotContains(t, mysql, "ON CONFLICT")

	for _, dialect := range []string{"postgres", "sqlite"} {
		stmt := insertStmt(dialect)
		assert.Contains(t, stmt, "ON CONFLICT (reference) DO NOTHING")
		assert.NotContains(t, stmt, "INSERT IGNORE")
	}
}
