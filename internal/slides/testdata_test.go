package slides

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
)

// buildPackage writes a presentation package with the given number of slides
// and images. Media entries are interleaved with slide parts.
func buildPackage(t *testing.T, slides, images int, extra map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}

	write("[Content_Types].xml", []byte(`<?xml version="1.0"?><Types/>`))
	write("ppt/presentation.xml", []byte(`<p:presentation/>`))
	for i := 1; i <= slides; i++ {
		write(fmt.Sprintf("ppt/slides/slide%d.xml", i), []byte(`<p:sld/>`))
		write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i), []byte(`<Relationships/>`))
		if i <= images {
			data := pngBytes
			ext := "png"
			if i%2 == 0 {
				data, ext = jpegBytes, "jpeg"
			}
			write(fmt.Sprintf("ppt/media/image%d.%s", i, ext), data)
		}
	}
	for name, data := range extra {
		write(name, data)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPackageWithUnreadableMedia writes a package whose first media entry
// uses a compression method archive/zip cannot decode
func buildPackageWithUnreadableMedia(t *testing.T, slides int) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	raw, err := zw.CreateRaw(&zip.FileHeader{
		Name:               "ppt/media/image1.png",
		Method:             99,
		CompressedSize64:   uint64(len(pngBytes)),
		UncompressedSize64: uint64(len(pngBytes)),
	})
	require.NoError(t, err)
	_, err = raw.Write(pngBytes)
	require.NoError(t, err)

	for i := 1; i <= slides; i++ {
		w, err := zw.Create(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i))
		require.NoError(t, err)
		_, err = w.Write([]byte(`<Relationships/>`))
		require.NoError(t, err)
	}
	w, err := zw.Create("ppt/media/image2.png")
	require.NoError(t, err)
	_, err = w.Write(pngBytes)
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF writes a minimal PDF document with the given number of pages
func buildPDF(pages int) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}
