package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"
)

// pngHeader is enough magic bytes for http.DetectContentType to call it a PNG.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	return files[0]
}

func TestClassifyMedia(t *testing.T) {
	tests := []struct {
		mimeType string
		want     string
		wantErr  bool
	}{
		{"image/png", "image", false},
		{"image/jpeg", "image", false},
		{"video/mp4", "video", false},
		{"video/webm", "video", false},
		{"application/pdf", "", true},
		{"text/plain", "", true},
		{"audio/mpeg", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		kind, err := ClassifyMedia(tt.mimeType)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedMedia) {
				t.Errorf("ClassifyMedia(%q): want ErrUnsupportedMedia, got %v", tt.mimeType, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ClassifyMedia(%q): unexpected error %v", tt.mimeType, err)
			continue
		}
		if kind != tt.want {
			t.Errorf("ClassifyMedia(%q) = %q, want %q", tt.mimeType, kind, tt.want)
		}
	}
}

func TestValidateMediaAcceptsImage(t *testing.T) {
	header := multipartHeader(t, "photo.png", "image/png", pngHeader)

	kind, err := ValidateMedia(header, 5<<20)
	if err != nil {
		t.Fatalf("ValidateMedia: %v", err)
	}
	if kind != "image" {
		t.Errorf("kind = %q, want image", kind)
	}
}

func TestValidateMediaAcceptsVideoWithOpaqueContent(t *testing.T) {
	// Video containers usually sniff as application/octet-stream; the
	// declared type decides then.
	header := multipartHeader(t, "clip.mp4", "video/mp4", []byte{0x00, 0x01, 0x02, 0x03})

	kind, err := ValidateMedia(header, 5<<20)
	if err != nil {
		t.Fatalf("ValidateMedia: %v", err)
	}
	if kind != "video" {
		t.Errorf("kind = %q, want video", kind)
	}
}

func TestValidateMediaRejectsUnsupportedType(t *testing.T) {
	header := multipartHeader(t, "notes.txt", "text/plain", []byte("hello"))

	_, err := ValidateMedia(header, 5<<20)
	if !errors.Is(err, ErrUnsupportedMedia) {
		t.Fatalf("want ErrUnsupportedMedia, got %v", err)
	}
}

func TestValidateMediaRejectsMislabeledContent(t *testing.T) {
	// Plain text declared as an image must not pass.
	header := multipartHeader(t, "fake.png", "image/png", []byte("just some text content here"))

	_, err := ValidateMedia(header, 5<<20)
	if !errors.Is(err, ErrUnsupportedMedia) {
		t.Fatalf("want ErrUnsupportedMedia, got %v", err)
	}
}

func TestValidateMediaRejectsOversizedFile(t *testing.T) {
	header := multipartHeader(t, "big.png", "image/png", pngHeader)

	_, err := ValidateMedia(header, 4)
	if err == nil {
		t.Fatal("want size error, got nil")
	}
}

func TestValidateProductLink(t *testing.T) {
	valid := []string{"", "  ", "https://example.com/item/1", "http://shop.example.jp/?a=1"}
	for _, link := range valid {
		if err := ValidateProductLink(link); err != nil {
			t.Errorf("ValidateProductLink(%q): unexpected error %v", link, err)
		}
	}

	invalid := []string{"ftp://example.com/file", "not a url", "javascript:alert(1)"}
	for _, link := range invalid {
		if err := ValidateProductLink(link); err == nil {
			t.Errorf("ValidateProductLink(%q): want error, got nil", link)
		}
	}
}
