package sqlstore

import "testing"

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Dialect{NumberedParams: true}}
	got := pg.rebind(`SELECT 1 FROM t WHERE a = ? AND b = ?`)
	if got != `SELECT 1 FROM t WHERE a = $1 AND b = $2` {
		t.Fatalf("unexpected rebind %q", got)
	}

	lite := &Store{}
	if got := lite.rebind(`a = ?`); got != `a = ?` {
		t.Fatalf("expected query unchanged, got %q", got)
	}
}
