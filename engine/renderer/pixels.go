package renderer

import "image"

// SwizzleRGBAToBGRA copies src into dst swapping the red and blue channels.
// Both slices hold 4 bytes per pixel; extra bytes in the longer one are ignored.
func SwizzleRGBAToBGRA(dst, src []byte) {
	n := min(len(dst), len(src)) &^ 3
	for i := 0; i < n; i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}

// CloneRGBA returns a deep copy of img, or nil.
func CloneRGBA(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}
