package extraction

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Extraction methods reported in Result.Method
const (
	MethodText     = "text"
	MethodDocx     = "docx"
	MethodPDF      = "pdf"
	MethodPagesXML = "xml"
	MethodPagesPDF = "pdf_preview"
	MethodFailed   = "failed"
)

const (
	encodingUTF8     = "utf-8"
	encodingWindows  = "windows-1252"
	metaKeyFilename  = "filename"
	metaKeyEncoding  = "encoding"
	metaKeyNote      = "note"
	previewPDFNote   = "extracted from PDF preview, formatting may not be preserved"
	pagesConvertHint = "this .pages file uses a newer format; export it to .docx or .pdf from Pages and re-run"
)

// SupportedExtensions lists the lowercase file extensions Extract handles
var SupportedExtensions = []string{".pages", ".pdf", ".docx", ".txt", ".md"}

// Result is the outcome of extracting one file. Extract never returns an
// error value; failures are reported with Success false and Error set.
type Result struct {
	Text     string            `json:"text"`
	Success  bool              `json:"success"`
	Method   string            `json:"extraction_method"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Err returns the failure as an *ExtractionError, or nil on success
func (r Result) Err(path string) error {
	if r.Success {
		return nil
	}
	return &ExtractionError{Path: path, Method: r.Method, Message: r.Error}
}

// IsSupported reports whether the file extension is one Extract can read
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Extract reads the text of a supported document. Extracted text passes
// through CleanText.
func Extract(path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return failed(MethodFailed, fmt.Sprintf("file not found: %s", path))
		}
		return failed(MethodFailed, err.Error())
	}
	if info.IsDir() {
		return failed(MethodFailed, fmt.Sprintf("not a regular file: %s", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	var (
		text   string
		method string
		meta   = map[string]string{metaKeyFilename: filepath.Base(path)}
	)

	switch ext {
	case ".txt", ".md":
		method = MethodText
		var encoding string
		text, encoding, err = readPlainText(path)
		meta[metaKeyEncoding] = encoding
	case ".docx":
		method = MethodDocx
		text, err = readDocx(path)
	case ".pdf":
		method = MethodPDF
		text, err = readPDF(path)
	case ".pages":
		text, method, err = readPages(path)
		if method == MethodPagesPDF {
			meta[metaKeyNote] = previewPDFNote
		}
	default:
		return failed(MethodFailed, fmt.Sprintf("unsupported file format: %s (supported: %s)",
			ext, strings.Join(SupportedExtensions, ", ")))
	}
	if err != nil {
		return failed(method, err.Error())
	}

	text = CleanText(text)
	if text == "" && method != MethodText {
		return failed(method, "no text content found")
	}

	return Result{Text: text, Success: true, Method: method, Metadata: meta}
}

func failed(method, msg string) Result {
	return Result{Success: false, Method: method, Error: msg}
}

// readPlainText decodes UTF-8, falling back to Windows-1252 for legacy files
func readPlainText(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff"), encodingUTF8, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("unable to decode text file: %w", err)
	}
	return string(decoded), encodingWindows, nil
}
