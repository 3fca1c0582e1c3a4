package recipe

import (
	"encoding/base64"
	"testing"
)

func TestDecodeImage_AcceptsDeclaredAndDetectedImage(t *testing.T) {
	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	tests := []struct {
		name     string
		dataURL  string
		wantMime string
	}{
		{"png", pngDataURL(), "image/png"},
		{"jpeg", "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg), "image/jpeg"},
		{"declared type is case-insensitive", "data:IMAGE/PNG;base64," + base64.StdEncoding.EncodeToString(pngHeader), "image/png"},
		{"content decides stored type", "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(pngHeader), "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := decodeImage(tt.dataURL, 1024)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mime != tt.wantMime {
				t.Errorf("mime = %q, want %q", mime, tt.wantMime)
			}
			if len(data) == 0 {
				t.Error("expected decoded data")
			}
		})
	}
}

func TestDecodeImage_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		dataURL string
	}{
		{"no data prefix", "image/png;base64,AAAA"},
		{"no comma", "data:image/png;base64"},
		{"not base64", "data:image/png," + string(pngHeader)},
		{"non-image type", "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte("<b>x</b>"))},
		{"empty payload", "data:image/png;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := decodeImage(tt.dataURL, 1024); err == nil {
				t.Errorf("decodeImage(%q) expected error, got nil", tt.name)
			}
		})
	}
}

func TestDecodeImage_SizeLimitIsInclusive(t *testing.T) {
	data := append([]byte{}, pngHeader...)
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	if _, _, err := decodeImage(url, len(data)); err != nil {
		t.Errorf("image of exactly max bytes should pass: %v", err)
	}
	if _, _, err := decodeImage(url, len(data)-1); err == nil {
		t.Error("image larger than max bytes should fail")
	}
}
