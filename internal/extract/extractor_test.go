package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"text", []byte("Hello world\nLine 2"), ".txt", "Hello world\nLine 2"},
		{"utf8 markdown", []byte("caf\xc3\xa9"), ".md", "café"},
		{"invalid utf8", []byte("hello\x80world"), ".rst", "hello�world"},
		{"byte order mark", []byte("\xEF\xBB\xBFsoft cotton"), ".txt", "soft cotton"},
		{"unknown extension", []byte("raw bytes"), ".xyz", "raw bytes"},
		{"no extension", []byte("plain"), "", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_html(t *testing.T) {
	e := NewExtractor()
	content := []byte(`<html><head><title>ignored</title><style>p{color:red}</style></head>
<body><h1>Trail   Runner</h1><p>Grippy sole &amp; breathable mesh.</p><script>var x = 1;</script></body></html>`)
	got, err := e.ExtractBytes(content, ".HTML")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Trail Runner Grippy sole & breathable mesh." {
		t.Errorf("got %q", got)
	}

	got, err = e.ExtractBytes([]byte("<p>Just a <b>fragment</b></p>"), ".htm")
	if err != nil {
		t.Fatalf("ExtractBytes fragment: %v", err)
	}
	if got != "Just a fragment" {
		t.Errorf("fragment: got %q", got)
	}
}

func TestExtract_plainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "description.md")
	if err := os.WriteFile(path, []byte("Hand-stitched leather"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Hand-stitched leather" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSupported(t *testing.T) {
	for _, ext := range []string{".pdf", ".DOCX", ".odt", ".rtf", ".html", ".md"} {
		if !Supported(ext) {
			t.Errorf("Supported(%q) = false", ext)
		}
	}
	for _, ext := range []string{".xlsx", ".pptx", ""} {
		if Supported(ext) {
			t.Errorf("Supported(%q) = true", ext)
		}
	}
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func docxBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func contentTypesFor(part string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/` + part + `"/>
</Types>`
}

func TestExtractBytes_docx(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name: "default document part",
			files: map[string]string{
				"word/document.xml": `<w:document ` + wordNS + `><w:body><w:p><w:r><w:t>Searchable docx content</w:t></w:r></w:p></w:body></w:document>`,
			},
			want: "Searchable docx content",
		},
		{
			name: "part from content types",
			files: map[string]string{
				"[Content_Types].xml": contentTypesFor("word/document2.xml"),
				"word/document2.xml":  `<w:document ` + wordNS + `><w:body><w:p><w:r><w:t>Content from document2</w:t></w:r></w:p></w:body></w:document>`,
			},
			want: "Content from document2",
		},
		{
			name: "runs joined and paragraphs split",
			files: map[string]string{
				"word/document.xml": `<w:document ` + wordNS + `><w:body>` +
					`<w:p w:rsidR="00AB"><w:r><w:t xml:space="preserve">Water</w:t></w:r><w:r><w:t>proof</w:t></w:r></w:p>` +
					`<w:p><w:r><w:t>Machine washable</w:t></w:r></w:p>` +
					`<w:p></w:p></w:body></w:document>`,
			},
			want: "Waterproof\nMachine washable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExtractor().ExtractBytes(docxBytes(t, tt.files), ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip content")
	}
	content := docxBytes(t, map[string]string{"other.xml": "<x/>"})
	if _, err := e.ExtractBytes(content, ".docx"); err == nil {
		t.Error("expected error when document part is missing")
	}
}

func TestExtractBytes_pdfInvalid(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("%PDF-broken"), ".pdf"); err == nil {
		t.Error("expected error for malformed PDF")
	}
}
