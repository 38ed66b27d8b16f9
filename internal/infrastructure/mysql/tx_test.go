package mysql

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}))
	assert.True(t, isRetryable(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}))

	// Wrapped driver errors still match.
	wrapped := fmt.Errorf("submit bid: %w", &mysql.MySQLError{Number: 1213})
	assert.True(t, isRetryable(wrapped))

	assert.False(t, isRetryable(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, isRetryable(assert.AnError))
	assert.False(t, isRetryable(nil))
}
