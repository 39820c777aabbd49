// Package local implements the store on a single JSON file, the server-side
// analog of keeping everything in browser storage. Suitable for evaluation
// and for running without a database.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rfmelo/gestorpme/internal/domain"
	"github.com/rfmelo/gestorpme/internal/store"
)

type payload struct {
	Clients      map[string]domain.Client      `json:"clients"`
	Transactions map[string]domain.Transaction `json:"transactions"`
	Files        map[string]domain.StoredFile  `json:"files"`
	Settings     domain.Settings               `json:"settings"`
}

// Store keeps all collections in memory and flushes the whole payload to
// disk after every write.
type Store struct {
	mu   sync.RWMutex
	path string
	data payload
}

var _ store.Store = (*Store)(nil)

// Open loads the store file, creating an empty one when absent.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: payload{
			Clients:      make(map[string]domain.Client),
			Transactions: make(map[string]domain.Transaction),
			Files:        make(map[string]domain.StoredFile),
		},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("local store: lendo %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("local store: arquivo %s corrompido: %w", path, err)
	}
	if s.data.Clients == nil {
		s.data.Clients = make(map[string]domain.Client)
	}
	if s.data.Transactions == nil {
		s.data.Transactions = make(map[string]domain.Transaction)
	}
	if s.data.Files == nil {
		s.data.Files = make(map[string]domain.StoredFile)
	}
	return s, nil
}

// flush must be called with the write lock held.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("local store: serializando: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("local store: criando diretório: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("local store: gravando: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("local store: gravando: %w", err)
	}
	return nil
}

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Client, 0, len(s.data.Clients))
	for _, c := range s.data.Clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) BulkUpsertClients(ctx context.Context, clients []domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range clients {
		s.data.Clients[c.ID] = c
	}
	return s.flush()
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.Clients, id)
	return s.flush()
}

func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Transaction, 0, len(s.data.Transactions))
	for _, t := range s.data.Transactions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) BulkUpsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		s.data.Transactions[t.ID] = t
	}
	return s.flush()
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.Transactions, id)
	return s.flush()
}

func (s *Store) ListFiles(ctx context.Context) ([]domain.StoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StoredFile, 0, len(s.data.Files))
	for _, f := range s.data.Files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) UpsertFile(ctx context.Context, f domain.StoredFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Files[f.ID] = f
	return s.flush()
}

func (s *Store) DeleteFile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.Files, id)
	return s.flush()
}

func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Settings = settings
	return s.flush()
}

func (s *Store) Close() {}
