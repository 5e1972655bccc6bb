package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ExtractDocx reads the body text of a .docx file. Paragraphs become lines and
// table rows become cells joined with " | ".
func ExtractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("open docx: word/document.xml not found")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open docx body: %w", err)
	}
	defer rc.Close()

	return readDocumentXML(rc)
}

func readDocumentXML(r io.Reader) (string, error) {
	var (
		out       strings.Builder
		para      strings.Builder
		row       []string
		cell      []string
		tableDeep int
		inText    bool
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDeep++
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				line := strings.TrimSpace(para.String())
				para.Reset()
				if tableDeep > 0 {
					if line != "" {
						cell = append(cell, line)
					}
					continue
				}
				out.WriteString(line)
				out.WriteByte('\n')
			case "tc":
				if text := strings.Join(cell, " "); text != "" {
					row = append(row, text)
				}
				cell = cell[:0]
			case "tr":
				if len(row) > 0 {
					out.WriteString(strings.Join(row, " | "))
					out.WriteByte('\n')
				}
				row = row[:0]
			case "tbl":
				tableDeep--
			}
		}
	}
	return out.String(), nil
}
