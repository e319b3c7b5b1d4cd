// Package catalog reads and writes product catalogs as YAML files.
package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/doclens/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a catalog:
//
//	products:
//	  - name: Papel A4
//	    description: Resma 500 folhas
//	    positive_keywords: resistente, branco
//	    negative_keywords: amassado
type File struct {
	Products []domain.Product `yaml:"products"`
}

// LoadYAML reads a catalog file
func LoadYAML(path string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeYAML(f)
}

// DecodeYAML decodes a catalog document; an empty document is an empty catalog
func DecodeYAML(r io.Reader) ([]domain.Product, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if file.Products == nil {
		return []domain.Product{}, nil
	}
	return file.Products, nil
}

// WriteYAML writes products to path, replacing any existing file
func WriteYAML(path string, products []domain.Product) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeYAML(f, products); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeYAML writes products as a catalog document
func EncodeYAML(w io.Writer, products []domain.Product) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Products: products}); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
