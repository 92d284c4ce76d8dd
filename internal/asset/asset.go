package asset

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/webp"
)

var ErrNotFound = errors.New("asset not found")

// NewFile loads the image at filePath from the local filesystem.
func NewFile(filePath string) *FileLoader {
	dir, name := filepath.Split(filePath)
	if dir == "" {
		dir = "."
	}
	return NewFS(os.DirFS(dir), name)
}

func NewFS(fsys fs.FS, name string) *FileLoader {
	return &FileLoader{
		fsys: fsys,
		name: name,
	}
}

// FileLoader decodes an image once and serves the cached copy afterwards.
type FileLoader struct {
	fsys fs.FS
	name string

	mu  sync.Mutex
	img image.Image
}

func (l *FileLoader) String() string {
	return "asset.FileLoader(" + l.name + ")"
}

func (l *FileLoader) Load(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.img != nil {
		return l.img, nil
	}

	file, err := l.fsys.Open(l.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, l.name)
		}
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.name, err)
	}

	l.img = img
	return img, nil
}

// Static serves an in-memory image.
type Static struct {
	Image image.Image
}

func (s Static) Load(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Image, nil
}

// None means the badge is drawn without a logo.
type None struct{}

func (None) Load(ctx context.Context) (image.Image, error) {
	return nil, nil
}
