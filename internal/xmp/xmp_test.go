package xmp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const darktableSidecar = `<?xml version="1.0" encoding="UTF-8"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/" x:xmptk="XMP Core 4.4.0-Exiv2">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:xmp="http://ns.adobe.com/xap/1.0/"
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    xmp:Rating="3">
   <dc:subject>
    <rdf:Bag>
     <rdf:li>holiday</rdf:li>
    </rdf:Bag>
   </dc:subject>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestRead_MissingFileIsEmpty(t *testing.T) {
	s, err := Read(filepath.Join(t.TempDir(), "nope.xmp"))
	require.NoError(t, err)
	assert.False(t, s.Exists())
	assert.Empty(t, s.Subjects())
	assert.False(t, s.HasPrefix("st"))
}

func TestWrite_CreatesNewPacket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.xmp")

	require.NoError(t, Write(path, []string{"dog", "grass"}, []string{"st|dog", "st|grass"}))

	s, err := Read(path)
	require.NoError(t, err)
	assert.True(t, s.Exists())
	assert.Equal(t, []string{"dog", "grass"}, s.Subjects())
	assert.Equal(t, []string{"st|dog", "st|grass"}, s.Hierarchical())
	assert.True(t, s.HasPrefix("st"))
	assert.False(t, s.HasPrefix("s"))
}

func TestWrite_ExtendsExistingSidecarPreservingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b.xmp")
	writeFile(t, path, darktableSidecar)

	require.NoError(t, Write(path, []string{"holiday", "beach"}, []string{"st|beach"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `xmp:Rating="3"`)
	assert.Contains(t, text, `x:xmptk="XMP Core 4.4.0-Exiv2"`)
	assert.Equal(t, 1, strings.Count(text, "<rdf:li>holiday</rdf:li>"))
	assert.Contains(t, text, `xmlns:lr="http://ns.adobe.com/lightroom/1.0/"`)

	s, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"holiday", "beach"}, s.Subjects())
	assert.Equal(t, []string{"st|beach"}, s.Hierarchical())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWrite_SelfClosingDescription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.xmp")
	writeFile(t, path, `<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmp:Rating="1"/>
 </rdf:RDF>
</x:xmpmeta>
`)

	require.NoError(t, Write(path, []string{"cat"}, []string{"st|cat"}))

	s, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, s.Subjects())
	assert.Equal(t, []string{"st|cat"}, s.Hierarchical())
}

func TestWrite_EscapesLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.xmp")
	require.NoError(t, Write(path, []string{"salt & pepper"}, []string{"st|<odd>"}))

	s, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"salt & pepper"}, s.Subjects())
	assert.Equal(t, []string{"st|<odd>"}, s.Hierarchical())
}

func TestWrite_NoChangesLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.xmp")
	writeFile(t, path, darktableSidecar)

	require.NoError(t, Write(path, []string{"holiday"}, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, darktableSidecar, string(raw))
}

func TestRead_MalformedSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xmp")
	writeFile(t, path, "<x:xmpmeta><rdf:RDF>")
	_, err := Read(path)
	require.Error(t, err)
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "PICT0001.JPG")
	writeFile(t, img, "")

	assert.Equal(t, filepath.Join(dir, "PICT0001.xmp"), Locate(img, false))
	assert.Equal(t, filepath.Join(dir, "PICT0001.JPG.xmp"), Locate(img, true))

	writeFile(t, filepath.Join(dir, "PICT0001.XMP"), darktableSidecar)
	assert.Equal(t, filepath.Join(dir, "PICT0001.XMP"), Locate(img, true))

	writeFile(t, filepath.Join(dir, "PICT0001.JPG.XMP"), darktableSidecar)
	assert.Equal(t, filepath.Join(dir, "PICT0001.JPG.XMP"), Locate(img, false))
}
