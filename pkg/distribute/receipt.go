package distribute

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/figkit/figkit/pkg/errors"
)

// Receipt records one completed delivery, so `figkit status` can tell
// which figures have gone out and whether they are stale.
type Receipt struct {
	ID        string       `json:"id"`
	FigureID  string       `json:"figure_id"`
	Dest      string       `json:"dest"`
	Files     []FileResult `json:"files"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewReceipt builds a receipt for a finished delivery.
func NewReceipt(figureID, dest string, files []FileResult) *Receipt {
	return &Receipt{
		ID:        uuid.NewString(),
		FigureID:  figureID,
		Dest:      dest,
		Files:     files,
		CreatedAt: time.Now(),
	}
}

// ReceiptStore keeps receipts as JSON files in a config directory.
type ReceiptStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewReceiptStore creates a file-backed receipt store.
// If baseDir is empty, defaults to ~/.config/figkit/receipts/
func NewReceiptStore(baseDir string) (*ReceiptStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".config", "figkit", "receipts")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create receipt dir")
	}
	return &ReceiptStore{baseDir: baseDir}, nil
}

func (s *ReceiptStore) receiptPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Save persists a receipt.
func (s *ReceiptStore) Save(ctx context.Context, r *Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal receipt")
	}
	if err := os.WriteFile(s.receiptPath(r.ID), data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write receipt")
	}
	return nil
}

// Get retrieves a receipt by ID. Returns nil, nil when it doesn't exist.
func (s *ReceiptStore) Get(ctx context.Context, id string) (*Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.receiptPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read receipt")
	}

	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse receipt")
	}
	return &r, nil
}

// List returns all receipts, newest first. Unreadable entries are
// skipped rather than failing the whole listing.
func (s *ReceiptStore) List(ctx context.Context) ([]*Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read receipt dir")
	}

	var receipts []*Receipt
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var r Receipt
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		receipts = append(receipts, &r)
	}

	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].CreatedAt.After(receipts[j].CreatedAt)
	})
	return receipts, nil
}

// Latest returns the most recent receipt for a figure, or nil, nil when
// the figure has never been delivered.
func (s *ReceiptStore) Latest(ctx context.Context, figureID string) (*Receipt, error) {
	receipts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range receipts {
		if r.FigureID == figureID {
			return r, nil
		}
	}
	return nil, nil
}

// Path returns the base directory for receipt files.
func (s *ReceiptStore) Path() string {
	return s.baseDir
}
