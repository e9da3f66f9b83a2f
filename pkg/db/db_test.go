package db

import (
	"testing"

	"bookingdesk/pkg/config"
)

func TestRuntimeConnString_PrefersDatabaseURL(t *testing.T) {
	cfg := config.Config{
		DatabaseURL: "postgres://pooler/db?pgbouncer=true",
		DB:          config.DBConfig{Host: "h", Port: "5432", Name: "n", User: "u", Password: "p"},
	}
	if got := runtimeConnString(cfg); got != cfg.DatabaseURL {
		t.Fatalf("expected DATABASE_URL, got %q", got)
	}
}

func TestMigrationConnString_FallsBackToDSN(t *testing.T) {
	cfg := config.Config{
		DB: config.DBConfig{Host: "h", Port: "5432", Name: "n", User: "u", Password: "p"},
	}
	want := "postgres://u:p@h:5432/n?sslmode=disable"
	if got := migrationConnString(cfg); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	cfg.DirectURL = "postgres://direct/db"
	if got := migrationConnString(cfg); got != cfg.DirectURL {
		t.Fatalf("expected DIRECT_URL, got %q", got)
	}
}
