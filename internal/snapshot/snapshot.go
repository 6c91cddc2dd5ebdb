package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/benline/priority-gateway/internal/domain"
)

// Key under which the snapshot lives in the object store.
const remoteKey = "snapshots/data.json"

// Remote is the optional object-store backing for the snapshot.
type Remote interface {
	PutBytes(ctx context.Context, key, contentType string, data []byte) error
	GetBytes(ctx context.Context, key string) ([]byte, error)
}

// Store persists a working copy of the last successful fetch: always to a
// local JSON file, and to the object store when one is configured. Reads
// prefer the object store and fall back to the file.
type Store struct {
	path   string
	remote Remote
	logger *zap.Logger
}

func New(path string, remote Remote, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		remote: remote,
		logger: logger,
	}
}

// Save writes the snapshot. The local write is atomic (temp file + rename);
// the remote write is best effort and only logged on failure.
func (s *Store) Save(ctx context.Context, list *domain.OrderList) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("snapshot marshal: %w", err)
	}

	if err := s.writeFile(data); err != nil {
		return err
	}

	if s.remote != nil {
		if err := s.remote.PutBytes(ctx, remoteKey, "application/json", data); err != nil {
			s.logger.Warn("snapshot not mirrored to object store", zap.Error(err))
		}
	}

	s.logger.Info("snapshot saved",
		zap.String("path", s.path),
		zap.Int("orders", len(list.Value)),
	)
	return nil
}

// Load returns the last saved snapshot, or ErrSnapshotMissing when neither
// backing has one.
func (s *Store) Load(ctx context.Context) (*domain.OrderList, error) {
	if s.remote != nil {
		if data, err := s.remote.GetBytes(ctx, remoteKey); err == nil {
			return parse(data)
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSnapshotMissing
		}
		return nil, fmt.Errorf("snapshot read: %w", err)
	}
	return parse(data)
}

func (s *Store) writeFile(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "snapshot-*.json")
	if err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}
	return nil
}

func parse(data []byte) (*domain.OrderList, error) {
	var list domain.OrderList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("snapshot parse: %w", err)
	}
	return &list, nil
}
