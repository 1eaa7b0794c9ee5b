package importer

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// File is an uploaded payload awaiting ingestion
type File interface {
	Name() string
	MIME() string
	Size() int64
	ReadBytes(ctx context.Context) ([]byte, error)
}

// BytesFile is an in-memory File
type BytesFile struct {
	FileName string
	MIMEType string
	Data     []byte
}

// NewBytesFile creates an in-memory file, guessing the MIME type from the name
func NewBytesFile(name string, data []byte) *BytesFile {
	return &BytesFile{
		FileName: name,
		MIMEType: mime.TypeByExtension(filepath.Ext(name)),
		Data:     data,
	}
}

func (f *BytesFile) Name() string { return f.FileName }
func (f *BytesFile) MIME() string { return f.MIMEType }
func (f *BytesFile) Size() int64  { return int64(len(f.Data)) }

// ReadBytes returns the payload
func (f *BytesFile) ReadBytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Data, nil
}

// DiskFile is a File backed by a path on disk
type DiskFile struct {
	path string
	size int64
}

// OpenDiskFile stats path and returns a lazily read File
func OpenDiskFile(path string) (*DiskFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &DiskFile{path: path, size: info.Size()}, nil
}

func (f *DiskFile) Name() string { return filepath.Base(f.path) }
func (f *DiskFile) MIME() string { return mime.TypeByExtension(filepath.Ext(f.path)) }
func (f *DiskFile) Size() int64  { return f.size }

// Path returns the file location
func (f *DiskFile) Path() string { return f.path }

// ReadBytes reads the whole file
func (f *DiskFile) ReadBytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return data, nil
}
