package upload

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// File is the selected document: an opaque blob whose name, size and type
// the environment already knows.
type File interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

// LocalFile is a File on disk.
type LocalFile struct {
	path  string
	size  int64
	ctype string
}

// OpenFile stats path and sniffs its content type.
func OpenFile(path string) (*LocalFile, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &LocalFile{path: path, size: st.Size(), ctype: detectType(path)}, nil
}

func (f *LocalFile) Name() string                 { return filepath.Base(f.path) }
func (f *LocalFile) Size() int64                  { return f.size }
func (f *LocalFile) ContentType() string          { return f.ctype }
func (f *LocalFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }
func (f *LocalFile) Path() string                 { return f.path }

func detectType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	fh, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer fh.Close()
	buf := make([]byte, 512)
	n, _ := io.ReadFull(fh, buf)
	return http.DetectContentType(buf[:n])
}

// MemFile is a File held in memory.
type MemFile struct {
	name  string
	ctype string
	data  []byte
}

func NewMemFile(name, contentType string, data []byte) *MemFile {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &MemFile{name: name, ctype: contentType, data: data}
}

func (f *MemFile) Name() string        { return f.name }
func (f *MemFile) Size() int64         { return int64(len(f.data)) }
func (f *MemFile) ContentType() string { return f.ctype }
func (f *MemFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// Digest returns the hex BLAKE3 digest of the file contents.
func Digest(f File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	h := blake3.New()
	if _, err := io.Copy(h, rc); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
