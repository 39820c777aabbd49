package local

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfmelo/gestorpme/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gestorpme.json"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestClientRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	clients := []domain.Client{
		{ID: "c1", Name: "Ana Souza", TaxID: "123.456.789-00", CreatedAt: time.Now()},
		{ID: "c2", Name: "Bruno Lima", Email: "bruno@example.com", CreatedAt: time.Now()},
	}
	require.NoError(t, s.BulkUpsertClients(ctx, clients))

	got, err := s.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, s.DeleteClient(ctx, "c1"))
	got, err = s.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bruno Lima", got[0].Name)
}

func TestBulkUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	txs := []domain.Transaction{
		{ID: "t1", Kind: domain.KindExpense, Description: "Aluguel", Amount: decimal.NewFromInt(1500), Date: time.Now()},
		{ID: "t2", Kind: domain.KindIncome, Description: "Venda", Amount: decimal.NewFromInt(300), Date: time.Now()},
	}
	require.NoError(t, s.BulkUpsertTransactions(ctx, txs))
	require.NoError(t, s.BulkUpsertTransactions(ctx, txs))

	got, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUpsertOverwritesByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	orig := domain.Transaction{ID: "t1", Kind: domain.KindExpense, Description: "Luz", Amount: decimal.NewFromInt(100), Date: time.Now()}
	require.NoError(t, s.BulkUpsertTransactions(ctx, []domain.Transaction{orig}))

	updated := orig
	updated.Amount = decimal.NewFromInt(120)
	require.NoError(t, s.BulkUpsertTransactions(ctx, []domain.Transaction{updated}))

	got, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(120)))
}

func TestSettingsPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gestorpme.json")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveSettings(ctx, domain.Settings{
		Entities:   []string{"Mercado Central"},
		Categories: []string{"Alimentação"},
	}))
	s.Close()

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mercado Central"}, settings.Entities)
	assert.Equal(t, []string{"Alimentação"}, settings.Categories)
}

func TestFileUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f := domain.StoredFile{ID: "f1", Name: "extrato.pdf", MimeClass: domain.MimePDF, SizeLabel: "12.3 KB", Date: time.Now(), URI: "data/f1"}
	require.NoError(t, s.UpsertFile(ctx, f))
	require.NoError(t, s.UpsertFile(ctx, f))

	got, err := s.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "extrato.pdf", got[0].Name)
}
