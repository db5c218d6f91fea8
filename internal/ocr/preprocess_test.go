package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
)

func encodeGray(t *testing.T, w, h int, fill uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: fill})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestPreprocessDisabledReturnsOriginal(t *testing.T) {
	logger := logging.NewLogger("test")
	data := encodeGray(t, 4, 4, 100)

	settings := confighub.PreprocessSettings{Enabled: false}
	if got := preprocess(data, settings, logger); !bytes.Equal(got, data) {
		t.Error("disabled preprocessing should return the input unchanged")
	}
}

func TestPreprocessDegradesToRawOnDecodeFailure(t *testing.T) {
	logger := logging.NewLogger("test")
	garbage := []byte("not an image at all")

	settings := confighub.Defaults().Ocr.Preprocess
	if got := preprocess(garbage, settings, logger); !bytes.Equal(got, garbage) {
		t.Error("undecodable input should pass through unmodified")
	}
}

func TestPreprocessScales(t *testing.T) {
	logger := logging.NewLogger("test")
	data := encodeGray(t, 4, 4, 100)

	settings := confighub.PreprocessSettings{
		Enabled:   true,
		Grayscale: true,
		Contrast:  1.0,
		Scale:     2.0,
	}

	out := preprocess(data, settings, logger)
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("scaled bounds = %dx%d, want 8x8", b.Dx(), b.Dy())
	}
}

func TestPreprocessThresholdBinarizes(t *testing.T) {
	logger := logging.NewLogger("test")
	data := encodeGray(t, 2, 2, 100)

	settings := confighub.PreprocessSettings{
		Enabled:   true,
		Contrast:  1.0,
		Scale:     1.0,
		Threshold: 128,
	}

	out := preprocess(data, settings, logger)
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("expected grayscale output, got %T", img)
	}
	if v := gray.GrayAt(0, 0).Y; v != 0 {
		t.Errorf("pixel below cutoff = %d, want 0", v)
	}
}
