package handler

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/storage"
)

// imageExtensions is the accepted photo extension allow-list.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func acceptableImage(fh *multipart.FileHeader) bool {
	if strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return true
	}
	return imageExtensions[strings.ToLower(filepath.Ext(fh.Filename))]
}

// openUploads validates and opens the files submitted under one form field.
// The caller closes the returned closer after the uploads are consumed.
func openUploads(headers []*multipart.FileHeader, field string, maxSize int64) ([]storage.Upload, func(), error) {
	uploads := make([]storage.Upload, 0, len(headers))
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, fh := range headers {
		if !acceptableImage(fh) {
			closeAll()
			vErr := &domain.ValidationError{}
			vErr.Add(field, fmt.Sprintf("file %q is not an accepted image type", fh.Filename))
			return nil, nil, vErr
		}
		if fh.Size > maxSize {
			closeAll()
			vErr := &domain.ValidationError{}
			vErr.Add(field, fmt.Sprintf("file %q exceeds the %d byte limit", fh.Filename, maxSize))
			return nil, nil, vErr
		}

		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		uploads = append(uploads, storage.Upload{
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			Size:         fh.Size,
			Reader:       f,
		})
	}

	return uploads, closeAll, nil
}
