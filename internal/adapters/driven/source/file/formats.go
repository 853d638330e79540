package file

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

// format turns file bytes into report text and an optional title.
type format interface {
	name() string
	extract(raw []byte) (content, title string, err error)
}

// binaryExts are document formats with no text extractor.
var binaryExts = map[string]bool{
	".pdf": true, ".doc": true, ".rtf": true, ".odt": true,
	".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".zip": true, ".gz": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
}

// checkSupported rejects binary formats that would otherwise be read as text.
func checkSupported(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if binaryExts[ext] {
		return fmt.Errorf("%w: %s files are not supported; convert the report to text, markdown, html or docx",
			domain.ErrInvalidInput, ext)
	}
	return nil
}

// formatFor selects the format by file extension. Unknown extensions are
// treated as text.
func formatFor(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return markdownFormat{}
	case ".html", ".htm":
		return htmlFormat{}
	case ".docx":
		return docxFormat{}
	default:
		return textFormat{}
	}
}

// titleFromPath makes a readable title from a file name.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

type textFormat struct{}

func (textFormat) name() string { return "text" }

func (textFormat) extract(raw []byte) (string, string, error) {
	text, _, err := decodeText(raw)
	return text, "", err
}

// markdownFormat keeps the markup: headings and lists give the chunker
// paragraph boundaries and the model reads them fine.
type markdownFormat struct{}

func (markdownFormat) name() string { return "markdown" }

func (markdownFormat) extract(raw []byte) (string, string, error) {
	text, _, err := decodeText(raw)
	if err != nil {
		return "", "", err
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return text, strings.TrimSpace(strings.TrimPrefix(line, "#")), nil
		}
	}
	return text, "", nil
}

var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	droppedElements   = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)[^>]*>.*?</(script|style|noscript|head|svg)>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	lineBreaks        = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
)

type htmlFormat struct{}

func (htmlFormat) name() string { return "html" }

func (htmlFormat) extract(raw []byte) (string, string, error) {
	text, _, err := decodeText(raw)
	if err != nil {
		return "", "", err
	}

	var title string
	if m := titleTag.FindStringSubmatch(text); len(m) > 1 {
		title = strings.TrimSpace(html.UnescapeString(m[1]))
	}

	text = droppedElements.ReplaceAllString(text, "")
	text = htmlComments.ReplaceAllString(text, "")
	text = openBlockElements.ReplaceAllString(text, "\n")
	text = blockElements.ReplaceAllString(text, "\n\n")
	text = lineBreaks.ReplaceAllString(text, "\n")
	text = allTags.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = multiSpaces.ReplaceAllString(text, " ")

	// Keep paragraph breaks as a single blank line.
	var out []string
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), title, nil
}

type docxFormat struct{}

func (docxFormat) name() string { return "docx" }

// wordDocument is the part of word/document.xml that carries text.
type wordDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

type coreProperties struct {
	Title string `xml:"title"`
}

func (docxFormat) extract(raw []byte) (string, string, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", "", fmt.Errorf("%w: not a docx archive: %w", domain.ErrInvalidInput, err)
	}

	body, err := readZipFile(reader, "word/document.xml")
	if err != nil {
		return "", "", err
	}
	var doc wordDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", "", fmt.Errorf("%w: parse document.xml: %w", domain.ErrInvalidInput, err)
	}

	paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				b.WriteString(t)
			}
		}
		paragraphs = append(paragraphs, b.String())
	}
	content := strings.TrimSpace(strings.Join(paragraphs, "\n"))

	var title string
	if core, err := readZipFile(reader, "docProps/core.xml"); err == nil {
		var props coreProperties
		if xml.Unmarshal(core, &props) == nil {
			title = strings.TrimSpace(props.Title)
		}
	}
	return content, title, nil
}

func readZipFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s missing from archive", domain.ErrInvalidInput, name)
}
