// Package report writes resolved packages and product lists.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/susepkg/internal/dist"
	"github.com/frederic-klein/susepkg/internal/errs"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !slices.Contains(Formats, f) {
		return "", &errs.Error{Op: "report.ParseFormat", Kind: errs.ErrInvalid, Message: "Invalid output format: " + s}
	}
	return f, nil
}

// Emitter writes reports to w.
type Emitter struct {
	w      io.Writer
	format Format
}

// NewEmitter creates an emitter writing format to w.
func NewEmitter(w io.Writer, format Format) *Emitter {
	return &Emitter{w: w, format: format}
}

// Emit writes packages in the order given. Text output is three columns,
// product, name and version-release, separated by two spaces.
func (e *Emitter) Emit(packages []dist.Package) error {
	switch e.format {
	case FormatJSON:
		return e.json(nonNil(packages))
	case FormatYAML:
		return e.yaml(nonNil(packages))
	}

	productWidth, nameWidth := 0, 0
	for _, p := range packages {
		productWidth = max(productWidth, runewidth.StringWidth(p.Product))
		nameWidth = max(nameWidth, runewidth.StringWidth(p.Name))
	}
	for _, p := range packages {
		if _, err := fmt.Fprintf(e.w, "%s  %s  %s\n",
			runewidth.FillRight(p.Product, productWidth),
			runewidth.FillRight(p.Name, nameWidth),
			p.Version,
		); err != nil {
			return err
		}
	}
	return nil
}

// EmitProducts writes product names, one per line in text mode.
func (e *Emitter) EmitProducts(products []dist.Product) error {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	switch e.format {
	case FormatJSON:
		return e.json(names)
	case FormatYAML:
		return e.yaml(names)
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(e.w, name); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) json(v any) error {
	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *Emitter) yaml(v any) error {
	enc := yaml.NewEncoder(e.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func nonNil(packages []dist.Package) []dist.Package {
	if packages == nil {
		return []dist.Package{}
	}
	return packages
}
