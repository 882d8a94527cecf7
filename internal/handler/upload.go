package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"
)

// maxUploadBytes bounds a single multipart request body (images only).
const maxUploadBytes = 10 << 20 // 10 MiB

// stageFormFile copies the named multipart file to a uniquely named file
// under dir and returns its path. Returns ("", nil) when the field is
// absent, so optional files need no special casing at the call site.
//
// The caller owns the staged file and must remove it when done, on success
// and on failure alike; handlers do this with a deferred removeStaged.
func stageFormFile(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", fmt.Errorf("handler: reading form file %q: %w", field, err)
	}
	defer file.Close()

	return stage(file, header, field, dir)
}

// stage writes the upload to disk with a collision-proof name that keeps
// the original extension (the media host derives the content type from
// it).
func stage(file multipart.File, header *multipart.FileHeader, field, dir string) (string, error) {
	name := fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixMilli(), xid.New().String(), filepath.Ext(header.Filename))
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("handler: creating staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("handler: staging upload: %w", err)
	}

	return path, nil
}

// removeStaged deletes a staged temp file, best effort. The file lives in
// the temp dir, so a missed removal is reaped by the OS eventually.
func removeStaged(path string) {
	if path != "" {
		os.Remove(path)
	}
}
