package transcripts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"playscribe/internal/fileutil"
	"playscribe/internal/services"
	"playscribe/internal/textutil"
)

// ErrEmptyTranscript is returned when there is no text to store.
var ErrEmptyTranscript = errors.New("empty transcript")

// Store writes transcripts beneath a single directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file that holds the transcript for playlistID.
func (s *Store) Path(playlistID string) string {
	return filepath.Join(s.dir, textutil.SanitizeFileName(playlistID)+".txt")
}

// Write stores text for playlistID, replacing any earlier copy.
func (s *Store) Write(playlistID, text string) error {
	if strings.TrimSpace(playlistID) == "" {
		return services.Wrap(services.ErrValidation, "transcripts", "write", "playlist id is required", nil)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: playlist %s", ErrEmptyTranscript, playlistID)
	}
	if err := fileutil.WriteFileAtomic(s.Path(playlistID), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcript %s: %w", playlistID, err)
	}
	return nil
}

// Read returns the stored transcript, or an error wrapping services.ErrNotFound.
func (s *Store) Read(playlistID string) (string, error) {
	data, err := os.ReadFile(s.Path(playlistID))
	if errors.Is(err, os.ErrNotExist) {
		return "", services.Wrap(services.ErrNotFound, "transcripts", "read", "no transcript for "+playlistID, nil)
	}
	if err != nil {
		return "", fmt.Errorf("read transcript %s: %w", playlistID, err)
	}
	return string(data), nil
}

// Exists reports whether a transcript has been stored for playlistID.
func (s *Store) Exists(playlistID string) bool {
	info, err := os.Stat(s.Path(playlistID))
	return err == nil && !info.IsDir()
}
