// Package qrcode turns an address string into a QR module grid and renders
// it with Unicode half blocks for the terminal.
package qrcode

import (
	"errors"
	"image/color"
	"strings"

	"github.com/boombuler/barcode/qr"
)

// QuietZone is the light border, in modules, drawn around the code.
const QuietZone = 2

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("nothing to encode")
	// ErrTooLong is returned when the input exceeds QR capacity.
	ErrTooLong = errors.New("too long for a QR code")
)

// Bitmap is a square grid of modules; true is dark.
type Bitmap struct {
	Size    int
	modules []bool
}

// Dark reports whether the module at (x, y) is dark. Out of range is light.
func (b Bitmap) Dark(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Size || y >= b.Size {
		return false
	}
	return b.modules[y*b.Size+x]
}

// Encode builds the QR code for data at medium error correction.
func Encode(data string) (Bitmap, error) {
	if strings.TrimSpace(data) == "" {
		return Bitmap{}, ErrEmpty
	}

	code, err := qr.Encode(data, qr.M, qr.Auto)
	if err != nil {
		return Bitmap{}, ErrTooLong
	}

	bounds := code.Bounds()
	size := bounds.Dx()
	b := Bitmap{Size: size, modules: make([]bool, size*size)}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			b.modules[y*size+x] = isDark(code.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return b, nil
}

func isDark(c color.Color) bool {
	r, g, bl, _ := c.RGBA()
	return r+g+bl < 3*0x8000
}

// Render draws b two module rows per text line, surrounded by QuietZone.
// Light modules are drawn with block characters so the code scans on a
// dark terminal; set darkOnLight for light backgrounds.
func Render(b Bitmap, darkOnLight bool) string {
	if b.Size == 0 {
		return ""
	}
	full := b.Size + 2*QuietZone
	ink := func(x, y int) bool {
		if y >= full {
			return false
		}
		dark := b.Dark(x-QuietZone, y-QuietZone)
		if darkOnLight {
			return dark
		}
		return !dark
	}

	var sb strings.Builder
	for y := 0; y < full; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < full; x++ {
			top, bottom := ink(x, y), ink(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

// Dimensions returns the rendered width and height in terminal cells.
func Dimensions(b Bitmap) (width, height int) {
	if b.Size == 0 {
		return 0, 0
	}
	full := b.Size + 2*QuietZone
	return full, (full + 1) / 2
}
