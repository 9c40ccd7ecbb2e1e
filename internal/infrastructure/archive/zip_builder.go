package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"time"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// File entrada del ZIP.
type File struct {
	Name     string
	Content  []byte
	Modified time.Time
}

// BuildZip empaqueta los archivos en un ZIP en memoria, en el orden recibido.
func BuildZip(files []File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return nil, fmt.Errorf("zip: crear entrada %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Content); err != nil {
			return nil, fmt.Errorf("zip: escribir %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

var unsafeChars = regexp.MustCompile(`[^0-9A-Za-z_-]`)

// DTEFilenames nombres de los artefactos del DTE: DTE_<numero>.xml / .pdf
func DTEFilenames(d *entity.DTE) (xmlName, pdfName string) {
	base := "DTE_" + unsafeChars.ReplaceAllString(d.DocumentNumber, "")
	return base + ".xml", base + ".pdf"
}

// DTEFiles entradas del ZIP de exportación para un DTE (solo los artefactos presentes).
func DTEFiles(d *entity.DTE) []File {
	xmlName, pdfName := DTEFilenames(d)
	var files []File
	if d.Files.XML != nil && len(d.Files.XML.Content) > 0 {
		files = append(files, File{Name: xmlName, Content: d.Files.XML.Content, Modified: d.UpdatedAt})
	}
	if d.Files.PDF != nil && len(d.Files.PDF.Content) > 0 {
		files = append(files, File{Name: pdfName, Content: d.Files.PDF.Content, Modified: d.UpdatedAt})
	}
	return files
}
