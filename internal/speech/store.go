package speech

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	filePrefix = "tts-"
	fileSuffix = ".mp3"
)

// ErrInvalidName is returned for names that were not produced by Save.
var ErrInvalidName = errors.New("speech: invalid audio file name")

// AudioStore keeps synthesized utterances in one directory shared by all calls.
// Every file gets a random name, so concurrent calls never write the same path.
type AudioStore struct {
	Dir string
}

func NewAudioStore(dir string) (*AudioStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("speech: audio dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("speech: create audio dir: %w", err)
	}
	return &AudioStore{Dir: dir}, nil
}

// Save writes audio under a fresh name and returns that name.
// The file appears atomically: it is written to a temp file and renamed.
func (s *AudioStore) Save(audio []byte) (string, error) {
	name := filePrefix + uuid.NewString() + fileSuffix

	tmp, err := os.CreateTemp(s.Dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("speech: create temp file: %w", err)
	}
	if _, err := tmp.Write(audio); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("speech: write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("speech: close audio: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("speech: publish audio: %w", err)
	}
	return name, nil
}

// Path resolves a stored file name to its location on disk.
func (s *AudioStore) Path(name string) (string, error) {
	if !ValidName(name) {
		return "", ErrInvalidName
	}
	p := filepath.Join(s.Dir, name)
	if _, err := os.Stat(p); err != nil {
		return "", err
	}
	return p, nil
}

// Prune deletes stored files last modified before cutoff and returns how many were removed.
func (s *AudioStore) Prune(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !ValidName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// ValidName reports whether name has the shape produced by Save.
func ValidName(name string) bool {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	_, err := uuid.Parse(id)
	return err == nil
}
