package documents

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Document is raw document content together with where it came from.
type Document struct {
	Name   string
	MIME   string
	Source string
	Data   []byte
}

// Text decodes the document content.
func (d *Document) Text() (string, error) {
	text, err := Decode(d.Data, d.MIME)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", d.Name, err)
	}
	return text, nil
}

// Source lists and fetches documents.
type Source interface {
	Name() string
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, key string) (*Document, error)
}

var supportedExtensions = []string{".pdf", ".docx", ".txt"}

// LocalSource reads documents from files and directories.
type LocalSource struct {
	paths []string
}

func NewLocalSource(paths ...string) *LocalSource {
	return &LocalSource{paths: paths}
}

func (s *LocalSource) Name() string { return "local" }

// List returns the given files and every supported file found under the given
// directories, in walk order.
func (s *LocalSource) List(ctx context.Context) ([]string, error) {
	files := make([]string, 0, len(s.paths))
	for _, path := range s.paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || !slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(p))) {
				return nil
			}
			files = append(files, p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
	}
	return files, nil
}

func (s *LocalSource) Fetch(_ context.Context, key string) (*Document, error) {
	data, err := os.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return &Document{Name: filepath.Base(key), Source: s.Name(), MIME: mimeByExtension(key), Data: data}, nil
}

func mimeByExtension(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDocx
	case ".txt":
		return MIMEText
	default:
		return ""
	}
}
