package source

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// ========================================
// Extension Tests
// ========================================

func TestAllowedFile(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"shelf.png", true},
		{"scan.webp", true},
		{"anim.gif", true},
		{"raw.bmp", true},
		{"notes.txt", false},
		{"archive.tar.gz", false},
		{"noextension", false},
		{"", false},
		{".png.exe", false},
	}

	for _, tt := range tests {
		if got := AllowedFile(tt.filename); got != tt.expected {
			t.Errorf("AllowedFile(%q) = %v, expected %v", tt.filename, got, tt.expected)
		}
	}
}

// ========================================
// Multipart Tests
// ========================================

func multipartFile(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write(content)
	w.Close()

	req := httptest.NewRequest("POST", "/detect", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	file, header, err := req.FormFile("image")
	if err != nil {
		t.Fatalf("FormFile failed: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file, header
}

func TestFromMultipart(t *testing.T) {
	content := pngBytes(t)
	file, header := multipartFile(t, "shelf.png", content)

	data, err := FromMultipart(file, header)
	if err != nil {
		t.Fatalf("FromMultipart failed: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("Upload content changed while reading")
	}
}

func TestFromMultipart_Rejects(t *testing.T) {
	file, header := multipartFile(t, "notes.txt", []byte("hello"))
	if _, err := FromMultipart(file, header); !errors.Is(err, ErrDisallowedType) {
		t.Errorf("Expected ErrDisallowedType, got %v", err)
	}

	if _, err := FromMultipart(nil, nil); !errors.Is(err, ErrNoFile) {
		t.Errorf("Expected ErrNoFile, got %v", err)
	}

	file, header = multipartFile(t, "empty.jpg", nil)
	if _, err := FromMultipart(file, header); !errors.Is(err, ErrNoFile) {
		t.Errorf("Expected ErrNoFile for empty upload, got %v", err)
	}
}

// ========================================
// Base64 Tests
// ========================================

func TestFromBase64(t *testing.T) {
	content := pngBytes(t)
	encoded := ToBase64(content)

	tests := []string{
		encoded,
		"data:image/png;base64," + encoded,
		"  " + encoded + "\n",
	}

	for _, payload := range tests {
		data, err := FromBase64(payload)
		if err != nil {
			t.Errorf("FromBase64(%.30q...) failed: %v", payload, err)
			continue
		}
		if !bytes.Equal(data, content) {
			t.Errorf("FromBase64(%.30q...) returned different bytes", payload)
		}
	}
}

func TestFromBase64_Errors(t *testing.T) {
	tests := []struct {
		payload  string
		expected error
	}{
		{"", ErrEmptyImageData},
		{"data:image/png;base64,", ErrEmptyImageData},
		{"not base64 at all!", ErrInvalidEncoding},
		{"abc", ErrInvalidEncoding},
	}

	for _, tt := range tests {
		if _, err := FromBase64(tt.payload); !errors.Is(err, tt.expected) {
			t.Errorf("FromBase64(%q) error = %v, expected %v", tt.payload, err, tt.expected)
		}
	}
}

func TestBase64RoundTripIsStable(t *testing.T) {
	original := pngBytes(t)

	encoded := ToBase64(original)
	decoded, err := FromBase64(encoded)
	if err != nil {
		t.Fatalf("FromBase64 failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Fatal("Decoded PNG differs from original")
	}
	if reencoded := ToBase64(decoded); reencoded != encoded {
		t.Error("Re-encoding produced a different base64 string")
	}
	if _, err := png.Decode(bytes.NewReader(decoded)); err != nil {
		t.Errorf("Round-tripped bytes are not a valid PNG: %v", err)
	}
}

// ========================================
// File Tests
// ========================================

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img2.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	data, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("Unexpected content %q", data)
	}

	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("Expected error for missing file")
	}
}
