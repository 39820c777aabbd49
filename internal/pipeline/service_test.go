package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfmelo/gestorpme/internal/domain"
	"github.com/rfmelo/gestorpme/internal/extract"
	"github.com/rfmelo/gestorpme/internal/importer"
	"github.com/rfmelo/gestorpme/internal/runs"
)

// memStore is a minimal in-memory store for pipeline tests.
type memStore struct {
	clients      []domain.Client
	transactions []domain.Transaction
	files        []domain.StoredFile
	settings     domain.Settings
}

func (m *memStore) ListClients(context.Context) ([]domain.Client, error) { return m.clients, nil }
func (m *memStore) BulkUpsertClients(_ context.Context, cs []domain.Client) error {
	m.clients = append(m.clients, cs...)
	return nil
}
func (m *memStore) DeleteClient(context.Context, string) error { return nil }
func (m *memStore) ListTransactions(context.Context) ([]domain.Transaction, error) {
	return m.transactions, nil
}
func (m *memStore) BulkUpsertTransactions(_ context.Context, txs []domain.Transaction) error {
	m.transactions = append(m.transactions, txs...)
	return nil
}
func (m *memStore) DeleteTransaction(context.Context, string) error { return nil }
func (m *memStore) ListFiles(context.Context) ([]domain.StoredFile, error) {
	return m.files, nil
}
func (m *memStore) UpsertFile(_ context.Context, f domain.StoredFile) error {
	m.files = append(m.files, f)
	return nil
}
func (m *memStore) DeleteFile(context.Context, string) error { return nil }
func (m *memStore) GetSettings(context.Context) (domain.Settings, error) {
	return m.settings, nil
}
func (m *memStore) SaveSettings(_ context.Context, s domain.Settings) error {
	m.settings = s
	return nil
}
func (m *memStore) Close() {}

// memBlobs stores blobs in a map.
type memBlobs struct {
	saved map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{saved: map[string][]byte{}} }

func (b *memBlobs) Save(_ context.Context, name string, data []byte) (string, error) {
	b.saved[name] = data
	return "mem://" + name, nil
}
func (b *memBlobs) Fetch(_ context.Context, uri string) ([]byte, error) {
	return b.saved[uri[len("mem://"):]], nil
}

// fakeExtractor returns canned extractions, optionally blocking until
// released so tests can hold the import gate open.
type fakeExtractor struct {
	extraction extract.Extraction
	csv        string
	err        error
	block      chan struct{}
}

func (f *fakeExtractor) ExtractRecords(context.Context, extract.Document, extract.Mode, domain.PolarityHint, domain.Settings) (extract.Extraction, error) {
	if f.block != nil {
		<-f.block
	}
	return f.extraction, f.err
}

func (f *fakeExtractor) ConvertCSV(context.Context, extract.Document, extract.Mode) (string, error) {
	if f.block != nil {
		<-f.block
	}
	return f.csv, f.err
}

func newTestService(s *memStore, ex Extractor) *Service {
	activity := importer.NewActivityLog()
	exec := importer.NewExecutor(s, activity, zerolog.Nop())
	return NewService(s, newMemBlobs(), ex, exec, activity, zerolog.Nop())
}

func TestImportDelimitedTransactions(t *testing.T) {
	s := &memStore{}
	svc := newTestService(s, &fakeExtractor{})

	csv := "Descrição;Data;Valor\n" +
		"Venda balcão;10/03/2026;350,50\n" +
		"Aluguel;05/03/2026;-1.500,00\n"
	res, err := svc.ImportDelimited(context.Background(), Upload{
		Name: "movimentos.csv", MediaType: "text/csv", Data: []byte(csv),
	}, TargetTransactions, domain.PolarityAuto)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Summary.Created)
	require.Len(t, s.transactions, 2)
	assert.Equal(t, domain.KindIncome, s.transactions[0].Kind)
	assert.Equal(t, domain.KindExpense, s.transactions[1].Kind)

	// The original upload is archived and recorded.
	require.Len(t, s.files, 1)
	assert.Equal(t, "movimentos.csv", s.files[0].Name)

	run, err := svc.Runs().Get(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, runs.StatusCompleted, run.Status)
}

func TestImportDelimitedClients(t *testing.T) {
	s := &memStore{}
	svc := newTestService(s, &fakeExtractor{})

	csv := "Nome;CPF/CNPJ\nAna Souza;123.456.789-00\nBruno Lima;987.654.321-00\n"
	res, err := svc.ImportDelimited(context.Background(), Upload{
		Name: "clientes.csv", MediaType: "text/csv", Data: []byte(csv),
	}, TargetClients, domain.PolarityAuto)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.Created)
	assert.Equal(t, 0, res.Summary.Warnings)
	assert.Len(t, s.clients, 2)
}

func TestImportDelimitedHintDoesNotOverrideColumnFlag(t *testing.T) {
	s := &memStore{}
	svc := newTestService(s, &fakeExtractor{})

	// The "Crédito" column forces income on its rows; the expense hint
	// must not flip them.
	csv := "Descrição;Data;Crédito\nVenda;10/03/2026;100,00\n"
	_, err := svc.ImportDelimited(context.Background(), Upload{
		Name: "entradas.csv", MediaType: "text/csv", Data: []byte(csv),
	}, TargetTransactions, domain.PolarityForceExpense)
	require.NoError(t, err)
	require.Len(t, s.transactions, 1)
	assert.Equal(t, domain.KindIncome, s.transactions[0].Kind)
}

func TestImportDelimitedNegativeAmountBeatsIncomeHint(t *testing.T) {
	s := &memStore{}
	svc := newTestService(s, &fakeExtractor{})

	// A refund row in an otherwise money-in statement: the negative sign
	// must win over the operator's income hint.
	csv := "Descrição;Data;Valor\n" +
		"Estorno;10/03/2026;-100,00\n" +
		"Venda;10/03/2026;100,00\n"
	_, err := svc.ImportDelimited(context.Background(), Upload{
		Name: "entradas.csv", MediaType: "text/csv", Data: []byte(csv),
	}, TargetTransactions, domain.PolarityForceIncome)
	require.NoError(t, err)
	require.Len(t, s.transactions, 2)
	assert.Equal(t, domain.KindExpense, s.transactions[0].Kind)
	assert.Equal(t, domain.KindIncome, s.transactions[1].Kind)
}

func TestImportDocumentMergesSettings(t *testing.T) {
	s := &memStore{settings: domain.Settings{Categories: []string{"Vendas"}}}

	clientRec := domain.ImportRecord{Line: 1}
	clientRec.Set(domain.FieldName, "Ana Souza")
	txRec := domain.ImportRecord{Line: 1}
	txRec.Set(domain.FieldDescription, "Compra mercado")
	txRec.Set(domain.FieldAmount, "-50.00")
	txRec.Set(domain.FieldDate, "2026-03-01")
	txRec.Set(domain.FieldCategory, "Alimentação")

	svc := newTestService(s, &fakeExtractor{extraction: extract.Extraction{
		Clients:      []domain.ImportRecord{clientRec},
		Transactions: []domain.ImportRecord{txRec},
	}})

	res, err := svc.ImportDocument(context.Background(), Upload{
		Name: "extrato.pdf", MediaType: "application/pdf", Data: []byte("%PDF-"),
	}, extract.ModeStandard, domain.PolarityAuto)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Summary.Created)
	assert.Equal(t, []string{"Alimentação"}, res.Summary.NewCategories)
	assert.Equal(t, []string{"Vendas", "Alimentação"}, s.settings.Categories)
	assert.Len(t, s.clients, 1)
	assert.Len(t, s.transactions, 1)
}

func TestConvertAndImportReturnsArtifact(t *testing.T) {
	s := &memStore{}
	csv := extract.ConvertHeader + "\nNF-1;Caixa;Vendas;;Venda balcão;10/03/2026;350,50\n"
	svc := newTestService(s, &fakeExtractor{csv: csv})

	res, err := svc.ConvertAndImport(context.Background(), Upload{
		Name: "nota.pdf", MediaType: "application/pdf", Data: []byte("%PDF-"),
	}, extract.ModeStandard, domain.PolarityAuto)
	require.NoError(t, err)

	assert.Equal(t, csv, res.Artifact)
	assert.Equal(t, 1, res.Summary.Created)
	require.Len(t, s.transactions, 1)
	assert.Equal(t, "Venda balcão", s.transactions[0].Description)
	assert.Equal(t, "Caixa", s.transactions[0].Account)
}

func TestSecondImportIsRejectedWhileFirstRuns(t *testing.T) {
	s := &memStore{}
	block := make(chan struct{})
	svc := newTestService(s, &fakeExtractor{block: block})

	done := make(chan error, 1)
	go func() {
		_, err := svc.ImportDocument(context.Background(), Upload{
			Name: "extrato.pdf", MediaType: "application/pdf", Data: []byte("%PDF-"),
		}, extract.ModeStandard, domain.PolarityAuto)
		done <- err
	}()

	// Wait until the first import holds the gate.
	require.Eventually(t, func() bool {
		_, err := svc.ImportDelimited(context.Background(), Upload{
			Name: "x.csv", MediaType: "text/csv", Data: []byte("a;b\n1;2\n"),
		}, TargetTransactions, domain.PolarityAuto)
		return errors.Is(err, importer.ErrImportBusy)
	}, 2*time.Second, 10*time.Millisecond)

	close(block)
	require.NoError(t, <-done)
}
