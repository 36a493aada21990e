package testhelpers

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
)

// LoadFixture reads a file from internal/testhelpers/fixtures regardless of
// the calling package's directory.
func LoadFixture(name string) ([]byte, error) {
	_, file, _, _ := runtime.Caller(0)
	return os.ReadFile(filepath.Join(filepath.Dir(file), "fixtures", name))
}

// MustLoadFixture is LoadFixture for test setup blocks.
func MustLoadFixture(name string) []byte {
	b, err := LoadFixture(name)
	if err != nil {
		panic(err)
	}
	return b
}

// CreateMockZipArchive wraps data in a zip archive holding a single file,
// the way DART ships corpCode.xml.
func CreateMockZipArchive(filename string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create(filename)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
