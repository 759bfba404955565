package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// pdftotextBin is replaced in tests
var pdftotextBin = "pdftotext"

var previewPaths = []string{"QuickLook/Preview.pdf", "preview.pdf", "Preview.pdf"}

// readDocx pulls word/document.xml out of the package and flattens it
func readDocx(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer func() { _ = r.Close() }()

	return docxText(r.Editable().GetContent())
}

// docxText renders WordprocessingML as text. Paragraphs become lines, table
// cells in a row are tab separated.
func docxText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		out     strings.Builder
		para    strings.Builder
		cells   []string
		inText  bool
		inCell  int
		cellBuf strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			case "tc":
				inCell++
				cellBuf.Reset()
			case "tr":
				cells = cells[:0]
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				line := para.String()
				para.Reset()
				if inCell > 0 {
					if cellBuf.Len() > 0 && strings.TrimSpace(line) != "" {
						cellBuf.WriteString(" ")
					}
					cellBuf.WriteString(line)
					continue
				}
				if strings.TrimSpace(line) != "" {
					out.WriteString(line)
					out.WriteString("\n")
				}
			case "tc":
				inCell--
				cells = append(cells, cellBuf.String())
			case "tr":
				row := strings.Join(cells, "\t")
				if strings.TrimSpace(row) != "" {
					out.WriteString(row)
					out.WriteString("\n")
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return out.String(), nil
}

// readPDF shells out to pdftotext, which keeps the column layout readable
func readPDF(path string) (string, error) {
	cmd := exec.Command(pdftotextBin, "-layout", path, "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "is poppler-utils installed?"
		}
		return "", fmt.Errorf("pdftotext failed (%s): %w", msg, err)
	}
	return string(output), nil
}

// readPages handles both .pages generations: the legacy index.xml package
// and newer bundles that only carry a PDF preview.
func readPages(path string) (string, string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", MethodFailed, fmt.Errorf("invalid .pages file (not a zip archive): %w", err)
	}
	defer func() { _ = zr.Close() }()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	if f, ok := files["index.xml"]; ok {
		text, err := pagesIndexText(f)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, MethodPagesXML, nil
		}
	}

	for _, name := range previewPaths {
		f, ok := files[name]
		if !ok {
			continue
		}
		text, err := previewText(f)
		if err != nil {
			return "", MethodPagesPDF, err
		}
		if strings.TrimSpace(text) != "" {
			return text, MethodPagesPDF, nil
		}
	}

	return "", MethodFailed, errors.New(pagesConvertHint)
}

// pagesIndexText collects paragraph and list item text from a legacy index.xml.
// Paragraphs nested inside a list item are part of that item.
func pagesIndexText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	dec := xml.NewDecoder(rc)
	var (
		parts    []string
		seen     = make(map[string]bool)
		buf      strings.Builder
		depth    int
		listItem bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if depth == 0 && (name == "list-item" || name == "li" || name == "p") {
				listItem = name != "p"
				buf.Reset()
			}
			if depth > 0 || name == "list-item" || name == "li" || name == "p" {
				depth++
			}
		case xml.EndElement:
			if depth == 0 {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			text := strings.TrimSpace(buf.String())
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			if listItem {
				parts = append(parts, "• "+text)
			} else {
				parts = append(parts, text)
			}
		case xml.CharData:
			if depth > 0 {
				buf.Write(t)
			}
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// previewText copies the embedded PDF to a temp file and runs pdftotext on it
func previewText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open preview: %w", err)
	}
	defer func() { _ = rc.Close() }()

	tmp, err := os.CreateTemp("", "pages-preview-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to copy preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return readPDF(tmp.Name())
}
