package documents

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml":            `<?xml version="1.0"?><w:document><w:body>` + body + `</w:body></w:document>`,
	}
	for _, name := range []string{"[Content_Types].xml", "word/_rels/document.xml.rels", "word/document.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeText(t *testing.T) {
	t.Parallel()

	text, err := Decode([]byte("John Smith\nJava developer"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "John Smith\nJava developer" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestDecodeDocx(t *testing.T) {
	t.Parallel()

	data := buildDocx(t, `<w:p><w:r><w:t>John Smith</w:t></w:r></w:p><w:p><w:r><w:t>Java &amp; Spring Boot</w:t></w:r></w:p>`)
	text, err := Decode(data, MIMEDocx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "John Smith\nJava & Spring Boot" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	if _, err := Decode(png, "image/png"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestDecodeBrokenPDF(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("%PDF-1.4\nnot really a pdf"), "")
	if err == nil {
		t.Fatalf("expected error for a broken pdf")
	}
	if errors.Is(err, ErrUnsupported) {
		t.Fatalf("broken pdf must not be reported as unsupported: %v", err)
	}
}

func TestDetectMIME(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		declared string
		expect   string
	}{
		{name: "pdf magic wins over declaration", data: []byte("%PDF-1.7\n"), declared: MIMEText, expect: MIMEPDF},
		{name: "plain text", data: []byte("hello"), expect: MIMEText},
		{name: "declared docx for a zip", data: buildDocx(t, ""), declared: MIMEDocx, expect: MIMEDocx},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectMIME(tt.data, tt.declared); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestDocxText(t *testing.T) {
	t.Parallel()

	got := docxText(`<w:p><w:r><w:t>A</w:t><w:tab/><w:t>B</w:t><w:br/><w:t>C &lt;D&gt;</w:t></w:r></w:p>`)
	if got != "A\tB\nC <D>" {
		t.Fatalf("unexpected text: %q", got)
	}
}
