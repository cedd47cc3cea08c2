// Package sqlxrepos implements the repositories on PostgreSQL.
package sqlxrepos

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

// where accumulates AND-ed conditions written with ? placeholders.
// Queries built from it go through (*sqlx.DB).Rebind before execution.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// addIn expands the single slice argument of an IN (?) condition.
func (w *where) addIn(cond string, slice interface{}) error {
	q, args, err := sqlx.In(cond, slice)
	if err != nil {
		return err
	}
	w.add(q, args...)
	return nil
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
