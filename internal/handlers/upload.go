package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
)

// multipartMemory is held in memory before parts spill to temp files
const multipartMemory = 1 << 20

var errNoFile = errors.New("no file uploaded")

// uploadFile adapts a multipart part to importer.File
type uploadFile struct {
	header *multipart.FileHeader
}

func (f *uploadFile) Name() string { return f.header.Filename }
func (f *uploadFile) MIME() string { return f.header.Header.Get("Content-Type") }
func (f *uploadFile) Size() int64  { return f.header.Size }

// ReadBytes reads the whole part
func (f *uploadFile) ReadBytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := f.header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()
	return io.ReadAll(src)
}

// readUpload parses the multipart form, bounded by the configured ceiling,
// and returns its "file" part. It writes the error response itself and
// returns nil on failure.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) *uploadFile {
	limit := int64(h.cfg.MaxUploadBytes)
	if limit > 0 {
		if r.ContentLength > limit {
			h.tooLarge(w)
			return nil
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(w)
			return nil
		}
		h.jsonError(w, "Invalid multipart form", http.StatusBadRequest)
		return nil
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		h.jsonError(w, errNoFile.Error(), http.StatusBadRequest)
		return nil
	}

	h.log.Debug().
		Str("name", files[0].Filename).
		Str("size", humanize.Bytes(uint64(files[0].Size))).
		Msg("Upload received")
	return &uploadFile{header: files[0]}
}

func (h *Handler) tooLarge(w http.ResponseWriter) {
	h.jsonError(w, fmt.Sprintf("File exceeds the %s upload limit", humanize.Bytes(h.cfg.MaxUploadBytes)),
		http.StatusRequestEntityTooLarge)
}
