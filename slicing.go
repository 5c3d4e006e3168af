package routinepdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

// strip is a horizontal band of a page image, rows [Y0, Y1).
type strip struct {
	Y0, Y1   int
	HeightMM float64 // placed height at content width
}

// planStrips splits an imgW x imgH image placed at contentWidthMM into bands
// that each fit pageHeightMM. An image that fits yields one full band.
// Adjacent bands overlap by at most one row; together they cover every row
// in order. No band is placed taller than pageHeightMM.
func planStrips(imgW, imgH int, contentWidthMM, pageHeightMM float64) []strip {
	if imgW <= 0 || imgH <= 0 {
		return nil
	}
	contentHeightMM := contentWidthMM * float64(imgH) / float64(imgW)
	if contentHeightMM <= pageHeightMM {
		return []strip{{Y0: 0, Y1: imgH, HeightMM: contentHeightMM}}
	}

	n := int(math.Ceil(contentHeightMM / pageHeightMM))
	k := pageHeightMM / contentHeightMM
	strips := make([]strip, 0, n)
	for p := range n {
		y0 := int(math.Floor(float64(p) * k * float64(imgH)))
		y1 := int(math.Ceil(math.Min(float64(p+1)*k, 1) * float64(imgH)))
		y1 = min(y1, imgH)
		if y0 >= y1 {
			break
		}
		strips = append(strips, strip{
			Y0:       y0,
			Y1:       y1,
			HeightMM: math.Min(float64(y1-y0)/float64(imgH)*contentHeightMM, pageHeightMM),
		})
	}
	return strips
}

// cropStrip copies rows [y0, y1) of img into a new JPEG.
func cropStrip(img image.Image, y0, y1, quality int) ([]byte, error) {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), y1-y0))
	draw.Copy(dst, image.Point{}, img, image.Rect(b.Min.X, b.Min.Y+y0, b.Max.X, b.Min.Y+y1), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return nil, fmt.Errorf("%w: encoding strip: %v", ErrRasterize, err)
	}
	return buf.Bytes(), nil
}
