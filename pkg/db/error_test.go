package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.False(t, IsDuplicateKeyErr(errors.New("syntax error")))

	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(errors.New(`ERROR: duplicate key value violates unique constraint "ux_payment_requests_reference" (SQLSTATE 23505)`)))
	assert.True(t, IsDuplicateKeyErr(errors.New("Error 1062 (23000): Duplicate entry 'INV-100' for key 'reference'")))
	assert.True(t, IsDuplicateKeyErr(errors.New("constraint failed: UNIQUE constraint failed: payment_requests.reference (2067)")))
}

func TestIsUnavailableErr(t *testing.T) {
	assert.False(t, IsUnavailableErr(nil))
	assert.False(t, IsUnavailableErr(gorm.ErrRecordNotFound))
	assert.False(t, IsUnavailableErr(errors.New("division by zero")))

	assert.True(t, IsUnavailableErr(context.DeadlineExceeded))
	assert.True(t, IsUnavailableErr(fmt.Errorf("exec: %w", context.Canceled)))
	assert.True(t, IsUnavailableErr(driver.ErrBadConn))
	assert.True(t, IsUnavailableErr(gorm.ErrInvalidDB))
	assert.True(t, IsUnavailableErr(&net.OpError{Op: "dial", Err: errors.New("timeout")}))
	assert.True(t, IsUnavailableErr(errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")))
	assert.True(t, IsUnavailableErr(errors.New("sql: database is closed")))
}
