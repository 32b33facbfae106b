package documents

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupported is returned for documents that are neither PDF, DOCX nor UTF-8 text.
var ErrUnsupported = errors.New("unsupported document type")

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

// DetectMIME sniffs the content type of data. A declared type is trusted
// only when sniffing cannot tell anything better than generic bytes or text.
func DetectMIME(data []byte, declared string) string {
	detected := mimetype.Detect(data)
	for _, known := range []string{MIMEPDF, MIMEDocx} {
		if detected.Is(known) {
			return known
		}
	}

	declared = strings.TrimSpace(strings.ToLower(declared))
	if declared == MIMEPDF || declared == MIMEDocx {
		return declared
	}

	if detected.Is(MIMEText) {
		return MIMEText
	}
	return detected.String()
}

// Decode converts a document to plain UTF-8 text.
func Decode(data []byte, declared string) (string, error) {
	switch mime := DetectMIME(data, declared); mime {
	case MIMEText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupported)
		}
		return string(data), nil
	case MIMEPDF:
		return decodePDF(data)
	case MIMEDocx:
		return decodeDocx(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}
}

func decodePDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}
	return builder.String(), nil
}

func decodeDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return docxText(doc.Editable().GetContent()), nil
}

// docxText strips WordprocessingML markup, keeping paragraph breaks.
func docxText(content string) string {
	content = docxParagraphEnd.ReplaceAllStringFunc(content, func(tag string) string {
		if tag == "<w:tab/>" {
			return "\t"
		}
		return "\n"
	})
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}
