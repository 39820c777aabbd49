// Package postgres implements the store on PostgreSQL via pgx. All bulk
// writes are id-keyed upserts sent as a single batch inside a transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rfmelo/gestorpme/internal/domain"
	"github.com/rfmelo/gestorpme/internal/store"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: conectando: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// rewriteSchemaError turns an undefined-column error into an actionable
// operator message. These show up after upgrades when the database schema
// lags behind the application.
func rewriteSchemaError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	undefinedColumn := errors.As(err, &pgErr) && pgErr.Code == "42703"
	if undefinedColumn || (strings.Contains(err.Error(), "column") && strings.Contains(err.Error(), "does not exist")) {
		return fmt.Errorf("coluna ausente no banco de dados (execute o comando gestorpme-migrate para atualizar o esquema): %w", err)
	}
	return err
}

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, tax_id, phone, email, created_at
		FROM clients
		ORDER BY created_at`)
	if err != nil {
		return nil, rewriteSchemaError(err)
	}
	defer rows.Close()

	var out []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.TaxID, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) BulkUpsertClients(ctx context.Context, clients []domain.Client) error {
	if len(clients) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range clients {
		batch.Queue(`
			INSERT INTO clients (id, name, tax_id, phone, email, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				tax_id = EXCLUDED.tax_id,
				phone = EXCLUDED.phone,
				email = EXCLUDED.email`,
			c.ID, c.Name, c.TaxID, c.Phone, c.Email, c.CreatedAt)
	}
	return s.sendBatch(ctx, batch)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	return rewriteSchemaError(err)
}

func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, description, amount::text, date, entity, category,
		       account, observation, client_id, supplier
		FROM transactions
		ORDER BY date`)
	if err != nil {
		return nil, rewriteSchemaError(err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			t      domain.Transaction
			amount string
		)
		if err := rows.Scan(&t.ID, &t.Kind, &t.Description, &amount, &t.Date,
			&t.Entity, &t.Category, &t.Account, &t.Observation, &t.ClientID, &t.Supplier); err != nil {
			return nil, err
		}
		t.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("postgres: valor inválido em %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) BulkUpsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(`
			INSERT INTO transactions
				(id, kind, description, amount, date, entity, category,
				 account, observation, client_id, supplier)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				kind = EXCLUDED.kind,
				description = EXCLUDED.description,
				amount = EXCLUDED.amount,
				date = EXCLUDED.date,
				entity = EXCLUDED.entity,
				category = EXCLUDED.category,
				account = EXCLUDED.account,
				observation = EXCLUDED.observation,
				client_id = EXCLUDED.client_id,
				supplier = EXCLUDED.supplier`,
			t.ID, string(t.Kind), t.Description, t.Amount.String(), t.Date,
			t.Entity, t.Category, t.Account, t.Observation, t.ClientID, t.Supplier)
	}
	return s.sendBatch(ctx, batch)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return rewriteSchemaError(err)
}

func (s *Store) ListFiles(ctx context.Context) ([]domain.StoredFile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, mime_class, size_label, date, uri,
		       associated_client, associated_transaction_id
		FROM files
		ORDER BY date`)
	if err != nil {
		return nil, rewriteSchemaError(err)
	}
	defer rows.Close()

	var out []domain.StoredFile
	for rows.Next() {
		var f domain.StoredFile
		if err := rows.Scan(&f.ID, &f.Name, &f.MimeClass, &f.SizeLabel, &f.Date,
			&f.URI, &f.AssociatedClient, &f.AssociatedTransactionID); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) UpsertFile(ctx context.Context, f domain.StoredFile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO files
			(id, name, mime_class, size_label, date, uri,
			 associated_client, associated_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			mime_class = EXCLUDED.mime_class,
			size_label = EXCLUDED.size_label,
			date = EXCLUDED.date,
			uri = EXCLUDED.uri,
			associated_client = EXCLUDED.associated_client,
			associated_transaction_id = EXCLUDED.associated_transaction_id`,
		f.ID, f.Name, string(f.MimeClass), f.SizeLabel, f.Date, f.URI,
		f.AssociatedClient, f.AssociatedTransactionID)
	return rewriteSchemaError(err)
}

func (s *Store) DeleteFile(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	return rewriteSchemaError(err)
}

func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	err := s.pool.QueryRow(ctx, `
		SELECT entities, categories FROM app_settings WHERE id = 1`).
		Scan(&settings.Entities, &settings.Categories)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Settings{}, nil
	}
	if err != nil {
		return domain.Settings{}, rewriteSchemaError(err)
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO app_settings (id, entities, categories)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			entities = EXCLUDED.entities,
			categories = EXCLUDED.categories`,
		settings.Entities, settings.Categories)
	return rewriteSchemaError(err)
}

// sendBatch runs every queued statement in one round trip and surfaces the
// first failure. pgx wraps implicit batches in a transaction, so a failed
// statement aborts the whole upsert.
func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return rewriteSchemaError(err)
		}
	}
	return results.Close()
}
