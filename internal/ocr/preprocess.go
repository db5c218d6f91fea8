/**
 * Image preprocessing ahead of OCR
 *
 * The LED display photographs poorly: low contrast, glare, and a sensor that
 * auto-exposes for the room rather than the digits. Conditioning the image
 * (grayscale, contrast/brightness, scaling, optional binary threshold)
 * measurably improves engine accuracy. Any preprocessing failure degrades to
 * the unmodified image; a worse image is still better than no cycle.
 */

package ocr

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg" // register the JPEG decoder for image.Decode
	"image/png"

	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
)

// preprocess applies the configured conditioning steps and re-encodes the
// result as PNG (lossless, preferred by the engine). Returns the original
// bytes when disabled or on any failure.
func preprocess(data []byte, settings confighub.PreprocessSettings, logger *logging.Logger) []byte {
	if !settings.Enabled {
		return data
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn("Preprocess decode failed, using raw image", "error", err)
		return data
	}
	logger.Debug("Preprocess: decoded image", "format", format, "bounds", img.Bounds())

	gray := toGray(img)

	if settings.Grayscale {
		logger.Debug("Preprocess: grayscale conversion applied")
	}

	if settings.Contrast != 1.0 || settings.Brightness != 0 {
		gray = adjust(gray, settings.Contrast, settings.Brightness)
		logger.Debug("Preprocess: contrast/brightness applied",
			"contrast", settings.Contrast, "brightness", settings.Brightness)
	}

	if settings.Scale != 1.0 {
		gray = scale(gray, settings.Scale)
		logger.Debug("Preprocess: scaled", "factor", settings.Scale, "bounds", gray.Bounds())
	}

	if settings.Threshold > 0 {
		gray = threshold(gray, uint8(settings.Threshold))
		logger.Debug("Preprocess: binary threshold applied", "threshold", settings.Threshold)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		logger.Warn("Preprocess encode failed, using raw image", "error", err)
		return data
	}
	return buf.Bytes()
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// adjust applies contrast (multiplicative, centered on mid-gray) and
// brightness (additive) in one pass.
func adjust(img *image.Gray, contrast, brightness float64) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := float64(img.GrayAt(x, y).Y)
			v = (v-128)*contrast + 128 + brightness
			out.SetGray(x, y, color.Gray{Y: clampByte(v)})
		}
	}
	return out
}

// scale resizes by nearest-neighbor. Display digits are large block shapes,
// so interpolation quality matters less than the pixel count the engine sees.
func scale(img *image.Gray, factor float64) *image.Gray {
	bounds := img.Bounds()
	w := int(float64(bounds.Dx()) * factor)
	h := int(float64(bounds.Dy()) * factor)
	if w < 1 || h < 1 {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcY := bounds.Min.Y + int(float64(y)/factor)
		for x := 0; x < w; x++ {
			srcX := bounds.Min.X + int(float64(x)/factor)
			out.SetGray(x, y, img.GrayAt(srcX, srcY))
		}
	}
	return out
}

func threshold(img *image.Gray, cutoff uint8) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y >= cutoff {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
