package scanjob

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// whiteThreshold is the luminance (0-255) above which a pixel counts as
// "page background" for margin trimming.
const whiteThreshold = 235

// AutoCrop implements the pure transformation spec §4.6 requires when
// ScanOptions.Crop is set: straighten, then crop to the document's
// bounding box. The device normally delivers pages as PDF (§4.3), which
// this package does not rasterize — imaging.Decode fails on that input and
// AutoCrop passes the bytes through unchanged, exactly the "no 4-corner
// detection" fallback the spec names. When the input decodes as a raster
// image, orientation is normalized with disintegration/imaging and the
// page is trimmed to its non-background bounding box.
func AutoCrop(data []byte) ([]byte, error) {
	straightened, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, nil
	}

	bounds := marginBounds(straightened)

	cropped := imaging.Crop(straightened, bounds)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, cropped, &jpeg.Options{Quality: 92}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// marginBounds finds the smallest axis-aligned rectangle containing every
// pixel darker than whiteThreshold — a bounding-box approximation of the
// spec's quadrilateral detection, without perspective correction.
func marginBounds(img image.Image) image.Rectangle {
	b := img.Bounds()

	top, bottom, left, right := b.Max.Y, b.Min.Y, b.Max.X, b.Min.X
	found := false

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isForeground(img.At(x, y)) {
				found = true
				if y < top {
					top = y
				}
				if y > bottom {
					bottom = y
				}
				if x < left {
					left = x
				}
				if x > right {
					right = x
				}
			}
		}
	}

	if !found {
		return b
	}
	return image.Rect(left, top, right+1, bottom+1)
}

func isForeground(c color.Color) bool {
	gray := color.GrayModel.Convert(c).(color.Gray)
	return gray.Y < whiteThreshold
}
