package sqlxrepos

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhere(t *testing.T) {
	var w where
	assert.Equal(t, "", w.String())

	w.add("recipient_id = ?", "ST-1")
	require.NoError(t, w.addIn("type IN (?)", []string{"parent", "admin"}))
	w.add("outpass_id = ?", "OP-CS1")

	q := sqlx.Rebind(sqlx.DOLLAR, "SELECT id FROM notifications"+w.String())
	assert.Equal(t, "SELECT id FROM notifications WHERE recipient_id = $1 AND type IN ($2, $3) AND outpass_id = $4", q)
	assert.Equal(t, []interface{}{"ST-1", "parent", "admin", "OP-CS1"}, w.args)
}

func TestWhere_addInEmpty(t *testing.T) {
	var w where
	assert.Error(t, w.addIn("status IN (?)", []string{}))
}
