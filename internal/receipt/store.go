package receipt

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"expensedash/internal/core"
)

// URLPrefix is the path under which stored receipts are served.
const URLPrefix = "/receipts/"

var (
	allowedExt = map[string]bool{".txt": true, ".pdf": true, ".png": true, ".jpg": true, ".jpeg": true}
	storedName = regexp.MustCompile(`^[0-9a-f-]{36}\.[a-z]{3,4}$`)
)

// FileStore keeps uploaded receipts on local disk under generated names.
type FileStore struct {
	dir      string
	maxBytes int64
}

func NewFileStore(dir string, maxBytes int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}
	return &FileStore{dir: dir, maxBytes: maxBytes}, nil
}

// Save writes r under a fresh name and returns its public URL and content.
// Uploads over the size limit or with an unknown extension are rejected.
func (s *FileStore) Save(original string, r io.Reader) (string, []byte, error) {
	ext := strings.ToLower(filepath.Ext(original))
	if !allowedExt[ext] {
		return "", nil, core.Invalid("receipt", fmt.Errorf("%q: %w", ext, ErrUnsupportedType))
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", nil, core.Invalid("receipt", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", nil, core.Invalid("receipt", ErrReceiptTooLarge)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil, core.Invalid("receipt", ErrEmptyReceipt)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", nil, core.Transport("write receipt", err)
	}
	return URLPrefix + name, data, nil
}

// Path resolves a stored receipt name to its file. Names not produced by
// Save are reported as not found.
func (s *FileStore) Path(name string) (string, error) {
	if !storedName.MatchString(name) {
		return "", core.NotFound("receipt", name)
	}
	p := filepath.Join(s.dir, name)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", core.NotFound("receipt", name)
		}
		return "", core.Transport("stat receipt", err)
	}
	return p, nil
}

// Remove deletes a stored receipt by its public URL or bare name. A
// receipt that is already gone is not an error.
func (s *FileStore) Remove(url string) error {
	name := strings.TrimPrefix(url, URLPrefix)
	if !storedName.MatchString(name) {
		return core.NotFound("receipt", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return core.Transport("remove receipt", err)
	}
	return nil
}
