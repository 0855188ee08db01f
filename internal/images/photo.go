package images

import (
	"errors"
	"net/http"
)

// MaxPhotoBytes caps a single sell-request photo
const MaxPhotoBytes = 2 * 1024 * 1024

var (
	ErrEmptyPhoto           = errors.New("photo is empty")
	ErrPhotoTooLarge        = errors.New("photo must be less than 2MB")
	ErrUnsupportedPhotoType = errors.New("only JPEG, PNG and WebP photos are allowed")
)

var photoContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// CheckPhoto validates size and type from the bytes themselves; the client's
// declared content type is never trusted. It returns the sniffed type.
func CheckPhoto(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPhoto
	}
	if len(data) > MaxPhotoBytes {
		return "", ErrPhotoTooLarge
	}
	contentType := http.DetectContentType(data)
	if !photoContentTypes[contentType] {
		return contentType, ErrUnsupportedPhotoType
	}
	return contentType, nil
}
