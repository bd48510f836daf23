package raster

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"image/png"
	"io"
	"sort"

	"github.com/disintegration/imaging"

	// registers the webp decoder; imaging registers bmp and tiff itself
	_ "golang.org/x/image/webp"
)

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")

	ErrNotPNG = errors.New("not a png stream")
)

// Metadata is embedded into saved PNGs as text chunks, each value JSON encoded.
type Metadata struct {
	Prompt any
	Extra  map[string]any
}

// EncodePNG writes the frame as a PNG carrying the metadata as text chunks.
func EncodePNG(w io.Writer, f Frame, meta Metadata) error {
	if err := f.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, f.Image(), imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}

	texts, err := meta.texts()
	if err != nil {
		return err
	}

	out, err := insertTextChunks(buf.Bytes(), texts)
	if err != nil {
		return err
	}

	_, err = w.Write(out)

	return err
}

type textEntry struct {
	keyword string
	text    string
}

func (m Metadata) texts() ([]textEntry, error) {
	var entries []textEntry

	if m.Prompt != nil {
		v, err := json.Marshal(m.Prompt)
		if err != nil {
			return nil, fmt.Errorf("encoding prompt metadata: %w", err)
		}

		entries = append(entries, textEntry{"prompt", string(v)})
	}

	keys := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		v, err := json.Marshal(m.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("encoding %s metadata: %w", k, err)
		}

		entries = append(entries, textEntry{k, string(v)})
	}

	return entries, nil
}

// insertTextChunks places the entries right after the IHDR chunk.
// Non latin-1 text is written as an uncompressed iTXt chunk.
func insertTextChunks(data []byte, entries []textEntry) ([]byte, error) {
	if len(entries) == 0 {
		return data, nil
	}

	// signature + IHDR (length, type, 13 bytes of data, crc)
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(data) < ihdrEnd || !bytes.Equal(data[:8], pngSignature) || string(data[12:16]) != "IHDR" {
		return nil, ErrNotPNG
	}

	var out bytes.Buffer
	out.Grow(len(data) + 256)
	out.Write(data[:ihdrEnd])

	for _, e := range entries {
		if len(e.keyword) == 0 || len(e.keyword) > 79 {
			return nil, fmt.Errorf("invalid png text keyword '%s'", e.keyword)
		}

		if isLatin1(e.text) {
			body := append([]byte(e.keyword+"\x00"), latin1(e.text)...)
			writeChunk(&out, "tEXt", body)

			continue
		}

		// keyword, null, compression flag, method, empty language tag and translated keyword
		body := append([]byte(e.keyword), 0, 0, 0, 0, 0)
		writeChunk(&out, "iTXt", append(body, e.text...))
	}

	out.Write(data[ihdrEnd:])

	return out.Bytes(), nil
}

func writeChunk(w *bytes.Buffer, typ string, body []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(body)))
	w.Write(length[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(body)

	w.WriteString(typ)
	w.Write(body)

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}

func isLatin1(s string) bool {
	for _, r := range s {
		if r > 0xff {
			return false
		}
	}

	return true
}

func latin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r))
	}

	return out
}

// Decode reads an encoded image, applies its EXIF orientation and returns it
// as a batch of one frame together with its transparency mask.
func Decode(r io.Reader) (Batch, Mask, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, Mask{}, fmt.Errorf("decoding image: %w", err)
	}

	frame, mask := FromImage(img)

	return Batch{frame}, mask, nil
}
