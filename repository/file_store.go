package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"roulette/models"

	log "github.com/sirupsen/logrus"
)

const snapshotVersion = 1

// snapshotFile is the on-disk layout of the ledger snapshot
type snapshotFile struct {
	Version  int                       `json:"version"`
	SavedAt  int64                     `json:"saved_at"`
	Accounts map[string]models.Account `json:"accounts"`
}

// FileStore persists the ledger snapshot as a single JSON file.
// Writes go to a temporary file in the same directory which is then renamed
// over the destination, so readers only ever see a complete file.
type FileStore struct {
	path   string
	rename func(oldpath, newpath string) error
	now    func() time.Time
}

// NewFileStore creates a file store writing to path
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		rename: os.Rename,
		now:    time.Now,
	}
}

// Path returns the destination file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted snapshot.
// A missing file yields an empty snapshot. A corrupt file is moved aside and
// an empty snapshot is returned so the process can still start.
func (s *FileStore) Load(ctx context.Context) (models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		log.WithField("path", s.path).Info("No snapshot file found, starting with an empty ledger")
		return models.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
		if renameErr := s.rename(s.path, aside); renameErr != nil {
			log.WithFields(log.Fields{
				"path":  s.path,
				"error": renameErr,
			}).Error("Failed to move corrupt snapshot aside")
		}
		log.WithFields(log.Fields{
			"path":    s.path,
			"movedTo": aside,
			"error":   err,
		}).Warn("Snapshot file is corrupt, starting with an empty ledger")
		return models.Snapshot{}, nil
	}

	log.WithFields(log.Fields{
		"path":     s.path,
		"accounts": len(snapshot),
	}).Info("Loaded ledger snapshot")
	return snapshot, nil
}

// isVersioned reports whether data uses the versioned layout, recognised by
// its "accounts" object. Legacy files may hold viewers named "version" or
// "accounts" with plain balances.
func isVersioned(data []byte) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return false
	}
	raw, ok := keys["accounts"]
	if !ok {
		return false
	}
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && (raw[0] == '{' || bytes.Equal(raw, []byte("null")))
}

// decodeSnapshot accepts the versioned layout and the legacy flat
// {"user": balance} layout.
func decodeSnapshot(data []byte) (models.Snapshot, error) {
	if isVersioned(data) {
		var file snapshotFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		if file.Accounts == nil {
			return nil, fmt.Errorf("snapshot has no accounts object")
		}
		snapshot := make(models.Snapshot, len(file.Accounts))
		for id, acc := range file.Accounts {
			user := models.NormalizeUser(id)
			if user == "" {
				continue
			}
			if acc.Balance < 0 || acc.Wins < 0 || acc.Losses < 0 {
				return nil, fmt.Errorf("account %q has negative fields", id)
			}
			snapshot[user] = acc
		}
		return snapshot, nil
	}

	var legacy map[string]int64
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	snapshot := make(models.Snapshot, len(legacy))
	for id, balance := range legacy {
		user := models.NormalizeUser(id)
		if user == "" {
			continue
		}
		if balance < 0 {
			balance = 0
		}
		// Keys that only differed by case collapse into one account
		if existing, ok := snapshot[user]; ok && existing.Balance >= balance {
			continue
		}
		snapshot[user] = models.Account{Balance: balance}
	}
	return snapshot, nil
}

// Save atomically replaces the snapshot file
func (s *FileStore) Save(ctx context.Context, snapshot models.Snapshot) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	if snapshot == nil {
		snapshot = models.Snapshot{}
	}
	data, err := json.MarshalIndent(snapshotFile{
		Version:  snapshotVersion,
		SavedAt:  s.now().Unix(),
		Accounts: snapshot,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	// Never leave temp files behind on failure
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}

	if err = s.rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the rename to disk where the platform allows it
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		log.WithFields(log.Fields{
			"dir":   dir,
			"error": err,
		}).Debug("Directory sync not supported")
	}
}
