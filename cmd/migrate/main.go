// Applies the PostgreSQL schema. Safe to run repeatedly: every statement
// is idempotent.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/rfmelo/gestorpme/internal/config"
	"github.com/rfmelo/gestorpme/internal/logger"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		tax_id      TEXT NOT NULL DEFAULT '',
		phone       TEXT NOT NULL DEFAULT '',
		email       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id           TEXT PRIMARY KEY,
		kind         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		amount       NUMERIC(14,2) NOT NULL,
		date         TIMESTAMPTZ NOT NULL,
		entity       TEXT NOT NULL DEFAULT '',
		category     TEXT NOT NULL DEFAULT '',
		account      TEXT NOT NULL DEFAULT '',
		observation  TEXT NOT NULL DEFAULT '',
		client_id    TEXT NOT NULL DEFAULT '',
		supplier     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS files (
		id                         TEXT PRIMARY KEY,
		name                       TEXT NOT NULL DEFAULT '',
		mime_class                 TEXT NOT NULL DEFAULT 'other',
		size_label                 TEXT NOT NULL DEFAULT '',
		date                       TIMESTAMPTZ NOT NULL,
		uri                        TEXT NOT NULL DEFAULT '',
		associated_client          TEXT NOT NULL DEFAULT '',
		associated_transaction_id  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		id          INT PRIMARY KEY,
		entities    TEXT[] NOT NULL DEFAULT '{}',
		categories  TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (date)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions (category)`,
}

func main() {
	log := logger.New()

	databaseURL := flag.String("database-url", "", "URL do PostgreSQL (padrão: DATABASE_URL)")
	flag.Parse()

	url := *databaseURL
	if url == "" {
		url = config.Load().DatabaseURL
	}
	if url == "" {
		log.Fatal().Msg("informe -database-url ou a variável DATABASE_URL")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao conectar ao banco de dados")
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao iniciar transação")
	}
	defer tx.Rollback(ctx)

	for i, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			log.Error().Err(err).Int("statement", i+1).Msg("falha ao aplicar esquema")
			os.Exit(1)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("falha ao confirmar transação")
	}

	log.Info().Int("statements", len(statements)).Msg("esquema aplicado")
}
