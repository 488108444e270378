// Package storage persists feature matrices and describes them with a
// Features record that can be kept alongside a dataset.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

// Extension is appended to keys by the file-backed storage.
const Extension = ".msgpack"

var (
	// ErrInvalidKey is returned for keys that would escape the storage directory.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrCorrupt is returned when a stored document does not describe a matrix.
	ErrCorrupt = errors.New("corrupt feature matrix")
)

// Writer stores a feature matrix under key and returns the key actually
// used. An empty key asks the writer to generate one.
type Writer interface {
	Write(ctx context.Context, key string, m *mat.Dense) (string, error)
}

// Reader loads a feature matrix written under key.
type Reader interface {
	Read(ctx context.Context, key string) (*mat.Dense, error)
}

// matrixDocument is the msgpack layout of a stored matrix. Data is row-major.
type matrixDocument struct {
	Rows int       `msgpack:"rows"`
	Cols int       `msgpack:"cols"`
	Data []float64 `msgpack:"data"`
}

// EncodeMatrix writes m as a single msgpack document.
func EncodeMatrix(w io.Writer, m *mat.Dense) error {
	doc := matrixDocument{}
	if m != nil && !m.IsEmpty() {
		doc.Rows, doc.Cols = m.Dims()
		doc.Data = make([]float64, 0, doc.Rows*doc.Cols)
		for i := range doc.Rows {
			doc.Data = append(doc.Data, m.RawRowView(i)...)
		}
	}
	return msgpack.NewEncoder(w).Encode(&doc)
}

// DecodeMatrix reads a matrix written by EncodeMatrix. A stored empty
// matrix decodes to an empty *mat.Dense.
func DecodeMatrix(r io.Reader) (*mat.Dense, error) {
	var doc matrixDocument
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if doc.Rows < 0 || doc.Cols < 0 || len(doc.Data) != doc.Rows*doc.Cols {
		return nil, fmt.Errorf("%w: %dx%d matrix with %d values", ErrCorrupt, doc.Rows, doc.Cols, len(doc.Data))
	}
	if doc.Rows == 0 || doc.Cols == 0 {
		return &mat.Dense{}, nil
	}
	return mat.NewDense(doc.Rows, doc.Cols, doc.Data), nil
}

// SaveMatrix writes m to a file.
func SaveMatrix(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := EncodeMatrix(f, m); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// LoadMatrix reads a matrix file written by SaveMatrix.
func LoadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := DecodeMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// FilesWriter stores one msgpack file per matrix in a directory.
type FilesWriter struct {
	dir string
}

// NewFilesWriter creates dir if needed.
func NewFilesWriter(dir string) (*FilesWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FilesWriter{dir: dir}, nil
}

// Dir returns the storage directory.
func (w *FilesWriter) Dir() string {
	return w.dir
}

func (w *FilesWriter) Write(ctx context.Context, key string, m *mat.Dense) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if key == "" {
		key = uuid.NewString()
	}
	path, err := keyPath(w.dir, key)
	if err != nil {
		return "", err
	}

	if err := SaveMatrix(path, m); err != nil {
		return "", err
	}
	return key, nil
}

// FilesReader reads matrices written by FilesWriter.
type FilesReader struct {
	dir string
}

func NewFilesReader(dir string) *FilesReader {
	return &FilesReader{dir: dir}
}

func (r *FilesReader) Read(ctx context.Context, key string) (*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := keyPath(r.dir, key)
	if err != nil {
		return nil, err
	}
	return LoadMatrix(path)
}

func keyPath(dir, key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(dir, key+Extension), nil
}
