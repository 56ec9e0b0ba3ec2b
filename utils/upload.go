package utils

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxImageSize is the upload byte ceiling (5MB)
const MaxImageSize = 5 * 1024 * 1024

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

var (
	ErrImageTooLarge   = errors.New("image exceeds the 5MB size limit")
	ErrImageNotAllowed = errors.New("only jpeg, jpg, png and gif images are allowed")
)

// UploadDir returns the directory uploaded images are stored under
func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

// ValidateImage checks an uploaded file against the image type/size policy
func ValidateImage(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExts[ext] {
		return ErrImageNotAllowed
	}
	if fh.Size > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

// SaveImage validates and stores an uploaded image under the upload directory
// and returns the web path it is served at. Generated names are collision
// resistant (timestamp plus random suffix) so files are never overwritten.
func SaveImage(fh *multipart.FileHeader) (string, error) {
	if err := ValidateImage(fh); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("%d-%d%s", time.Now().UnixNano(), rand.Intn(1_000_000_000), ext)
	dst := filepath.Join(UploadDir(), name)

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", err
	}

	return "/uploads/" + name, nil
}
