// Package source turns the supported image inputs (multipart upload, base64
// payload, local file) into raw encoded image bytes. Decoding to pixels is left
// to the detector.
package source

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNoFile          = errors.New("no image file provided")
	ErrEmptyFilename   = errors.New("no file selected")
	ErrDisallowedType  = errors.New("invalid file type")
	ErrEmptyImageData  = errors.New("no image data provided")
	ErrInvalidEncoding = errors.New("invalid base64 image data")
)

// AllowedExtensions lists the upload extensions accepted by the multipart source.
var AllowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
	"webp": true,
}

// AllowedFile reports whether filename carries an allowed image extension.
func AllowedFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return ext != "" && AllowedExtensions[ext]
}

// FromMultipart validates the uploaded file header and reads its content.
func FromMultipart(file multipart.File, header *multipart.FileHeader) ([]byte, error) {
	if file == nil || header == nil {
		return nil, ErrNoFile
	}
	if header.Filename == "" {
		return nil, ErrEmptyFilename
	}
	if !AllowedFile(header.Filename) {
		return nil, fmt.Errorf("%w: %s", ErrDisallowedType, filepath.Ext(header.Filename))
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	return data, nil
}

// FromBase64 decodes a standard base64 payload, with or without a data URL prefix.
func FromBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ","); i >= 0 {
			payload = payload[i+1:]
		}
	}
	if payload == "" {
		return nil, ErrEmptyImageData
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImageData
	}
	return data, nil
}

// ToBase64 encodes image bytes with standard base64.
func ToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// FromFile reads an image from disk.
func FromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return data, nil
}
