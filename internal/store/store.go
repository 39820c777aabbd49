// Package store defines the persistence capability the import pipeline is
// written against. Two implementations exist - a Postgres store and a local
// JSON-file store - chosen once at startup and injected; the pipeline must
// treat both identically.
package store

import (
	"context"

	"github.com/rfmelo/gestorpme/internal/domain"
)

// Store is the persistence collaborator. Bulk operations are upserts keyed
// by entity id and must apply as a single batch: either every record lands
// or the call fails as a whole.
type Store interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	BulkUpsertClients(ctx context.Context, clients []domain.Client) error
	DeleteClient(ctx context.Context, id string) error

	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	BulkUpsertTransactions(ctx context.Context, txs []domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	ListFiles(ctx context.Context) ([]domain.StoredFile, error)
	UpsertFile(ctx context.Context, f domain.StoredFile) error
	DeleteFile(ctx context.Context, id string) error

	GetSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, s domain.Settings) error

	Close()
}
