package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/migrations"
)

// Migrate runs all pending schema migrations from the embedded filesystem.
func Migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrMigrate, err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", config.ErrMigrate, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", config.ErrMigrate, err)
	}

	slog.Info(config.MsgMigrateApplied, config.LogKeyComponent, config.CompStore)
	return nil
}
