package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// SaveUploadedFile writes a multipart upload under dir with a uuid filename
// and returns the stored filename.
func SaveUploadedFile(file multipart.File, origName, dir string) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", err
	}

	ext := filepath.Ext(SanitizeFilename(origName))
	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return filename, nil
}

// CreateThumb writes a <name>_thumb.jpg next to the original image.
// Non-image files are skipped silently by the caller.
func CreateThumb(dir, filename string, width, height int) (string, error) {
	src, err := imaging.Open(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}

	thumb := imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)
	base := filename[:len(filename)-len(filepath.Ext(filename))]
	thumbName := base + "_thumb.jpg"

	if err := imaging.Save(thumb, filepath.Join(dir, thumbName)); err != nil {
		return "", err
	}
	return thumbName, nil
}
