// Package extract turns uploaded or fetched documents into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/doclens/backend/internal/domain"
	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxBytes bounds a single document when no limit is configured
const DefaultMaxBytes = 20 << 20

type format int

const (
	formatUnknown format = iota
	formatText
	formatHTML
	formatDOCX
	formatPDF
	formatRTF
)

var extensionFormats = map[string]format{
	".txt":  formatText,
	".md":   formatText,
	".html": formatHTML,
	".htm":  formatHTML,
	".docx": formatDOCX,
	".pdf":  formatPDF,
	".rtf":  formatRTF,
}

var contentTypeFormats = map[string]format{
	"text/plain":      formatText,
	"text/markdown":   formatText,
	"text/html":       formatHTML,
	"application/pdf": formatPDF,
	"application/rtf": formatRTF,
	"text/rtf":        formatRTF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": formatDOCX,
}

// Extractor implements domain.TextExtractor for txt, md, html, docx, rtf and pdf
type Extractor struct {
	maxBytes int64
	logger   *logrus.Entry
}

var _ domain.TextExtractor = (*Extractor)(nil)

// New creates an extractor that rejects documents larger than maxBytes
func New(maxBytes int64, logger *logrus.Entry) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = logrus.WithField("component", "extractor")
	}
	return &Extractor{maxBytes: maxBytes, logger: logger}
}

// Extract returns the plain text of doc. The format comes from the name's
// extension, or from the content type when the extension is unknown.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if doc == nil {
		return "", domain.ErrInvalidRequest
	}
	if int64(len(doc.Data)) > e.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrDocumentTooLarge, len(doc.Data), e.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f := detectFormat(doc.Name, doc.ContentType)

	var (
		text string
		err  error
	)
	switch f {
	case formatText:
		text = decodeText(doc.Data)
	case formatHTML:
		text, err = htmlText(doc.Data)
	case formatDOCX:
		text, err = docxText(doc.Data, e.maxBytes)
	case formatPDF:
		text, err = pdfText(doc.Data)
	case formatRTF:
		text = rtfText(doc.Data)
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, doc.Name)
	}
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", doc.Name, err)
	}

	e.logger.WithFields(logrus.Fields{
		"document": doc.Name,
		"bytes":    len(doc.Data),
		"chars":    utf8.RuneCountInString(text),
	}).Debug("text extracted")

	return text, nil
}

// ExtractFile reads path from disk and extracts its text
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*domain.Document, string, error) {
	if detectFormat(path, "") == formatUnknown {
		return nil, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if info.Size() > e.maxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrDocumentTooLarge, info.Size(), e.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	doc := &domain.Document{Name: filepath.Base(path), Data: data}
	text, err := e.Extract(ctx, doc)
	if err != nil {
		return nil, "", err
	}
	return doc, text, nil
}

// Supported reports whether a file name has an extension the extractor reads
func Supported(name string) bool {
	return detectFormat(name, "") != formatUnknown
}

func detectFormat(name, contentType string) format {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			return contentTypeFormats[mediaType]
		}
	}
	return formatUnknown
}

// decodeText reads UTF-8, falling back to ISO-8859-1 for legacy files
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte(" ")))
	}
	return string(decoded)
}

// htmlText collects text nodes outside script and style elements
func htmlText(data []byte) (string, error) {
	z := html.NewTokenizer(bytes.NewReader(data))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return b.String(), nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if isSkippedTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isSkippedTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isSkippedTag(name string) bool {
	return name == "script" || name == "style" || name == "noscript"
}

// docxText reads paragraph text from word/document.xml. The part may
// decompress to at most maxBytes.
func docxText(data []byte, maxBytes int64) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		if f.UncompressedSize64 > uint64(maxBytes) {
			return "", fmt.Errorf("%w: word/document.xml is %d bytes (limit %d)", domain.ErrDocumentTooLarge, f.UncompressedSize64, maxBytes)
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		// The header size is not trusted; count what actually inflates
		return wordprocessingText(&cappedReader{r: rc, left: maxBytes, limit: maxBytes})
	}
	return "", fmt.Errorf("open docx: word/document.xml missing")
}

// cappedReader fails with domain.ErrDocumentTooLarge once more than limit
// bytes have been read.
type cappedReader struct {
	r     io.Reader
	left  int64
	limit int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, fmt.Errorf("%w: decompressed over %d bytes", domain.ErrDocumentTooLarge, c.limit)
	}
	if int64(len(p)) > c.left+1 {
		p = p[:c.left+1]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return 0, fmt.Errorf("%w: decompressed over %d bytes", domain.ErrDocumentTooLarge, c.limit)
	}
	return n, err
}

// wordprocessingText joins w:t runs, breaking lines at w:p, w:br and w:tab
func wordprocessingText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "tab":
				b.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}

// pdfText returns the plain text of every page
func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var b bytes.Buffer
	if _, err := b.ReadFrom(plain); err != nil {
		return "", err
	}
	return b.String(), nil
}
