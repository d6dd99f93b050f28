package cart

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSlot stores the cart as a JSON file. Writes go to a temp file in the
// same directory which is then renamed over the target, so readers never
// observe a partial payload.
type FileSlot struct {
	path string
}

// NewFileSlot returns a slot at dir/<name>.json. The directory is created
// on first write.
func NewFileSlot(dir, name string) (*FileSlot, error) {
	if dir == "" {
		return nil, fmt.Errorf("cart file dir required")
	}
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == string(filepath.Separator) || base == ".." {
		return nil, fmt.Errorf("invalid cart file name %q", name)
	}
	return &FileSlot{path: filepath.Join(dir, base+".json")}, nil
}

// Path is the file backing the slot.
func (f *FileSlot) Path() string {
	return f.path
}

func (f *FileSlot) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cart file: %w", err)
	}
	return raw, nil
}

func (f *FileSlot) Save(ctx context.Context, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cart dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cart-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cart file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cart file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing cart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cart file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replacing cart file: %w", err)
	}
	return nil
}
