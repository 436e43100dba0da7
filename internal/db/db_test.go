package db

import (
	"context"
	"testing"
	"time"
)

func openMemory(t *testing.T, name string) *DB {
	t.Helper()
	d, err := Open("sqlite3", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpen_AppliesMigrations(t *testing.T) {
	d := openMemory(t, "dbmigrate")
	versions, err := AppliedVersions(d)
	if err != nil {
		t.Fatalf("applied versions: %v", err)
	}
	if len(versions) == 0 || versions[0] != 1 {
		t.Fatalf("expected migration 0001 applied, got %v", versions)
	}
	for _, table := range []string{"users", "establishments", "orders"} {
		var n int
		if err := d.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestRollbackLast_DropsSchema(t *testing.T) {
	d := openMemory(t, "dbrollback")
	if err := RollbackLast(d); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	var n int
	if err := d.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM users`).Scan(&n); err == nil {
		t.Fatalf("expected users table to be dropped")
	}
	versions, err := AppliedVersions(d)
	if err != nil {
		t.Fatalf("applied versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected no applied versions, got %v", versions)
	}
	// Nothing left to roll back is not an error.
	if err := RollbackLast(d); err != nil {
		t.Fatalf("second rollback: %v", err)
	}
}

func TestRebind(t *testing.T) {
	q := `UPDATE orders SET status = ? WHERE id = ? AND note <> '?'`
	if got := Rebind(SQLite, q); got != q {
		t.Fatalf("sqlite query must be untouched, got %q", got)
	}
	want := `UPDATE orders SET status = $1 WHERE id = $2 AND note <> '?'`
	if got := Rebind(Postgres, q); got != want {
		t.Fatalf("Rebind = %q, want %q", got, want)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	d := openMemory(t, "dbtx")
	ctx := context.Background()
	now := time.Now().UTC()
	errBoom := context.Canceled
	err := d.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?,?,?,?,?)`,
			"u1", "alice", "alice@temple.edu", "x", now); err != nil {
			return err
		}
		return errBoom
	})
	if err != errBoom {
		t.Fatalf("WithTx err = %v, want %v", err, errBoom)
	}
	var n int
	if err := d.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected rollback, found %d users", n)
	}
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	d := openMemory(t, "dbunique")
	ctx := context.Background()
	now := time.Now().UTC()
	insert := `INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?,?,?,?,?)`
	if _, err := d.ExecContext(ctx, insert, "u1", "alice", "alice@temple.edu", "x", now); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := d.ExecContext(ctx, insert, "u2", "alice", "other@temple.edu", "x", now)
	if err == nil {
		t.Fatalf("expected unique violation")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("IsUniqueViolation(%v) = false", err)
	}
}

func TestBalanceConstraints_SQLite(t *testing.T) {
	d := openMemory(t, "dbcheck")
	ctx := context.Background()
	_, err := d.ExecContext(ctx, `INSERT INTO users (id, username, email, password_hash, points, reserved_points, created_at) VALUES (?,?,?,?,?,?,?)`,
		"u1", "alice", "alice@temple.edu", "x", 10, 20, time.Now().UTC())
	if err == nil {
		t.Fatalf("expected check violation when reserved exceeds points")
	}
	if IsUniqueViolation(err) {
		t.Fatalf("check violation misreported as unique violation: %v", err)
	}
}
