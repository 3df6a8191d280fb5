//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	mysqlrepo "ean_hotel/internal/storage/mysql"
)

// ---------- small helpers ----------

// migrationsDir defaults to the repo's migrations folder.
func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=ean",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/ean?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the test ----------
func TestRepo_MySQL_RecordAndRecent(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if err := repo.Record(ctx, "reservation:parse", "1001", "arrivalDate: invalid date"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// same subject again: one row, two hits, latest reason
	if err := repo.Record(ctx, "reservation:parse", "1001", "departureDate: invalid date"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := repo.Record(ctx, "reservation:fetch", "1002", strings.Repeat("x", 600)); err != nil {
		t.Fatalf("Record long reason: %v", err)
	}

	got, err := repo.Recent(ctx, "reservation:parse", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 failure row, got %d", len(got))
	}
	if got[0].Subject != "1001" || got[0].Hits != 2 || got[0].Reason != "departureDate: invalid date" {
		t.Fatalf("unexpected failure row: %+v", got[0])
	}

	fetch, err := repo.Recent(ctx, "reservation:fetch", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(fetch) != 1 || len(fetch[0].Reason) != 512 {
		t.Fatalf("expected truncated reason, got %+v", fetch)
	}
}
