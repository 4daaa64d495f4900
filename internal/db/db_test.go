package db

import (
	"testing"

	"github.com/yungbote/neurathon-mate/internal/config"
	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

func TestOpenWithoutDriverIsDisabled(t *testing.T) {
	db, err := Open(config.DBConfig{}, logger.NewNop())
	if err != nil || db != nil {
		t.Fatalf("db=%v err=%v", db, err)
	}
}

func TestOpenSQLiteMigrates(t *testing.T) {
	db, err := Open(config.DBConfig{Driver: "sqlite", DSN: "file:dbtest?mode=memory&cache=shared"}, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(db)
	if !db.Migrator().HasTable(&domain.DecomposeCall{}) {
		t.Fatalf("decompose_call table missing")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(config.DBConfig{Driver: "mysql"}, logger.NewNop()); err == nil {
		t.Fatalf("expected error")
	}
}
