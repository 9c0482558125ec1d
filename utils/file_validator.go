package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileValidator checks uploads by size, extension and sniffed content type.
type FileValidator struct {
	allowedExt  map[string]bool
	allowedMime map[string]bool
	maxSize     int64
}

func NewImageValidator(maxSizeMB int) *FileValidator {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	return &FileValidator{
		allowedExt:  map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true},
		allowedMime: map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true},
		maxSize:     int64(maxSizeMB) << 20,
	}
}

// ValidateFile returns the detected MIME type of an acceptable file.
func (v *FileValidator) ValidateFile(fh *multipart.FileHeader) (string, error) {
	if fh.Size > v.maxSize {
		return "", fmt.Errorf("file too large (max %d MB)", v.maxSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !v.allowedExt[ext] {
		return "", fmt.Errorf("invalid file extension %q", ext)
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to read file header")
	}
	mt := strings.ToLower(detected.String())
	if !v.allowedMime[mt] {
		return "", fmt.Errorf("invalid file type")
	}
	return mt, nil
}

func (v *FileValidator) MaxSize() int64 {
	return v.maxSize
}
