package camera

import (
	"bufio"
	"bytes"
	"image"
	"image/jpeg"
	"io"
	"testing"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// chunkReader returns at most n bytes per Read to exercise partial frames.
type chunkReader struct {
	data []byte
	n    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := min(len(p), r.n, len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestSplitMJPEGStream(t *testing.T) {
	a := encodeJPEG(t, 16, 8)
	b := encodeJPEG(t, 8, 16)

	var stream []byte
	stream = append(stream, 0x00, 0x12, 0xFF) // garbage before the first frame
	stream = append(stream, a...)
	stream = append(stream, b...)
	stream = append(stream, a[:20]...) // truncated trailing frame

	for _, chunk := range []int{1, 7, 4096} {
		sc := bufio.NewScanner(&chunkReader{data: stream, n: chunk})
		sc.Split(SplitMJPEG)

		var sizes []image.Point
		for sc.Scan() {
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(sc.Bytes()))
			if err != nil {
				t.Fatalf("chunk %d: token is not a JPEG: %v", chunk, err)
			}
			sizes = append(sizes, image.Pt(cfg.Width, cfg.Height))
		}
		if err := sc.Err(); err != nil {
			t.Fatalf("chunk %d: %v", chunk, err)
		}
		if len(sizes) != 2 || sizes[0] != image.Pt(16, 8) || sizes[1] != image.Pt(8, 16) {
			t.Fatalf("chunk %d: frames = %v", chunk, sizes)
		}
	}
}

func TestSplitMJPEGKeepsTrailingMarkerByte(t *testing.T) {
	adv, tok, err := SplitMJPEG([]byte{0x01, 0x02, 0xFF}, false)
	if err != nil || tok != nil || adv != 2 {
		t.Fatalf("SplitMJPEG = %d, %v, %v; want 2, nil, nil", adv, tok, err)
	}
}
