package xmp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	nsRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsDC  = "http://purl.org/dc/elements/1.1/"
	nsLR  = "http://ns.adobe.com/lightroom/1.0/"
)

// HierarchySeparator joins the levels of a hierarchical subject.
const HierarchySeparator = "|"

// Sidecar is the keyword content of one XMP file.
type Sidecar struct {
	Path         string
	exists       bool
	subjects     []string
	hierarchical []string
}

// Exists reports whether the file was present when read.
func (s *Sidecar) Exists() bool { return s.exists }

// Subjects returns the dc:subject entries.
func (s *Sidecar) Subjects() []string { return append([]string(nil), s.subjects...) }

// Hierarchical returns the lr:hierarchicalSubject entries.
func (s *Sidecar) Hierarchical() []string { return append([]string(nil), s.hierarchical...) }

// HasPrefix reports whether any hierarchical subject lives below prefix.
func (s *Sidecar) HasPrefix(prefix string) bool {
	want := prefix + HierarchySeparator
	for _, h := range s.hierarchical {
		if strings.HasPrefix(h, want) {
			return true
		}
	}
	return false
}

// Read parses the sidecar at path. A missing file yields an empty Sidecar.
func Read(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Sidecar{Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sidecar: %w", err)
	}
	s, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse sidecar %s: %w", path, err)
	}
	s.Path = path
	s.exists = true
	return s, nil
}

func parse(data []byte) (*Sidecar, error) {
	s := &Sidecar{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var target *[]string
	inItem := false
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Space == nsDC && t.Name.Local == "subject":
				target = &s.subjects
			case t.Name.Space == nsLR && t.Name.Local == "hierarchicalSubject":
				target = &s.hierarchical
			case target != nil && t.Name.Space == nsRDF && t.Name.Local == "li":
				inItem = true
				text.Reset()
			}
		case xml.CharData:
			if inItem {
				text.Write(t)
			}
		case xml.EndElement:
			switch {
			case inItem && t.Name.Space == nsRDF && t.Name.Local == "li":
				inItem = false
				if v := strings.TrimSpace(text.String()); v != "" {
					*target = append(*target, v)
				}
			case t.Name.Space == nsDC && t.Name.Local == "subject",
				t.Name.Space == nsLR && t.Name.Local == "hierarchicalSubject":
				target = nil
			}
		}
	}
}
