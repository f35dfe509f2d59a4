package xmp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type bagSpec struct {
	element string // qualified name, e.g. "dc:subject"
	prefix  string
	ns      string
}

var (
	subjectBag      = bagSpec{element: "dc:subject", prefix: "dc", ns: nsDC}
	hierarchicalBag = bagSpec{element: "lr:hierarchicalSubject", prefix: "lr", ns: nsLR}
)

// Write adds subjects and hierarchical entries to the sidecar at path.
// Entries already present are not repeated. An existing file keeps all its
// other content; a missing file is created as a minimal XMP packet. The file
// is replaced atomically.
func Write(path string, subjects, hierarchical []string) error {
	current, err := Read(path)
	if err != nil {
		return err
	}
	addSubjects := missing(current.subjects, subjects)
	addHierarchical := missing(current.hierarchical, hierarchical)

	var data []byte
	mode := os.FileMode(0o644)
	if !current.exists {
		data = newPacket(addSubjects, addHierarchical)
	} else {
		if len(addSubjects) == 0 && len(addHierarchical) == 0 {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat sidecar: %w", err)
		}
		mode = info.Mode().Perm()
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read sidecar: %w", err)
		}
		text := string(raw)
		if text, err = insert(text, subjectBag, addSubjects); err != nil {
			return fmt.Errorf("update %s: %w", path, err)
		}
		if text, err = insert(text, hierarchicalBag, addHierarchical); err != nil {
			return fmt.Errorf("update %s: %w", path, err)
		}
		data = []byte(text)
	}
	return writeAtomic(path, data, mode)
}

func missing(have, want []string) []string {
	seen := make(map[string]struct{}, len(have)+len(want))
	for _, v := range have {
		seen[v] = struct{}{}
	}
	var out []string
	for _, v := range want {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func newPacket(subjects, hierarchical []string) []byte {
	var b strings.Builder
	b.WriteString("<?xpacket begin=\"\ufeff\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	b.WriteString("<x:xmpmeta xmlns:x=\"adobe:ns:meta/\">\n")
	b.WriteString(" <rdf:RDF xmlns:rdf=\"" + nsRDF + "\">\n")
	b.WriteString("  <rdf:Description rdf:about=\"\"\n")
	b.WriteString("    xmlns:dc=\"" + nsDC + "\"\n")
	b.WriteString("    xmlns:lr=\"" + nsLR + "\">\n")
	if len(subjects) > 0 {
		b.WriteString(bagBlock(subjectBag, subjects, "   "))
	}
	if len(hierarchical) > 0 {
		b.WriteString(bagBlock(hierarchicalBag, hierarchical, "   "))
	}
	b.WriteString("  </rdf:Description>\n")
	b.WriteString(" </rdf:RDF>\n")
	b.WriteString("</x:xmpmeta>\n")
	b.WriteString("<?xpacket end=\"w\"?>\n")
	return []byte(b.String())
}

func bagBlock(spec bagSpec, values []string, indent string) string {
	var b strings.Builder
	b.WriteString(indent + "<" + spec.element + ">\n")
	b.WriteString(indent + " <rdf:Bag>\n")
	b.WriteString(items(values, indent+"  "))
	b.WriteString(indent + " </rdf:Bag>\n")
	b.WriteString(indent + "</" + spec.element + ">\n")
	return b.String()
}

func items(values []string, indent string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(indent + "<rdf:li>" + escape(v) + "</rdf:li>\n")
	}
	return b.String()
}

func escape(v string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(v))
	return buf.String()
}

// insert adds values to the bag named by spec. An existing bag is extended in
// place; otherwise a new block goes at the end of the first rdf:Description.
func insert(text string, spec bagSpec, values []string) (string, error) {
	if len(values) == 0 {
		return text, nil
	}
	open := "<" + spec.element + ">"
	if start := strings.Index(text, open); start >= 0 {
		closeTag := "</" + spec.element + ">"
		end := strings.Index(text[start:], closeTag)
		if end < 0 {
			return "", fmt.Errorf("unterminated %s", spec.element)
		}
		end += start
		block := text[start:end]
		if bagEnd := strings.LastIndex(block, "</rdf:Bag>"); bagEnd >= 0 {
			at := start + bagEnd
			return text[:at] + items(values, "") + text[at:], nil
		}
		at := start + len(open)
		return text[:at] + "<rdf:Bag>" + items(values, "") + "</rdf:Bag>" + text[at:], nil
	}

	if !strings.Contains(text, "xmlns:"+spec.prefix+"=") {
		var err error
		if text, err = declareNamespace(text, spec); err != nil {
			return "", err
		}
	}
	block := bagBlock(spec, values, "   ")
	if at := strings.Index(text, "</rdf:Description>"); at >= 0 {
		return text[:at] + block + text[at:], nil
	}
	// Self-closing description: open it up.
	start := strings.Index(text, "<rdf:Description")
	if start < 0 {
		return "", fmt.Errorf("no rdf:Description element")
	}
	end := strings.Index(text[start:], "/>")
	if end < 0 {
		return "", fmt.Errorf("malformed rdf:Description element")
	}
	end += start
	return text[:end] + ">\n" + block + "  </rdf:Description>" + text[end+2:], nil
}

func declareNamespace(text string, spec bagSpec) (string, error) {
	start := strings.Index(text, "<rdf:Description")
	if start < 0 {
		return "", fmt.Errorf("no rdf:Description element")
	}
	at := start + len("<rdf:Description")
	return text[:at] + "\n    xmlns:" + spec.prefix + "=\"" + spec.ns + "\"" + text[at:], nil
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary sidecar: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod sidecar: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace sidecar: %w", err)
	}
	return nil
}
