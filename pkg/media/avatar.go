package media

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
)

// DefaultAvatarSize is the side length of generated avatars in pixels.
const DefaultAvatarSize = 200

// glyph canvas, upscaled to the final size
const avatarCanvas = 40

// Initials returns up to two upper-case initials from name, or "AV".
func Initials(name string) string {
	out := make([]rune, 0, 2)
	for _, part := range strings.Fields(name) {
		out = append(out, unicode.ToUpper([]rune(part)[0]))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "AV"
	}
	return string(out)
}

// AvatarColor picks a muted background color derived from name so the same
// person always gets the same avatar.
func AvatarColor(name string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	sum := h.Sum32()
	return color.RGBA{
		R: uint8(100 + sum%101),
		G: uint8(100 + (sum>>8)%101),
		B: uint8(100 + (sum>>16)%101),
		A: 255,
	}
}

// Avatar renders a square PNG with the initials of name on a colored
// background.
func Avatar(name string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultAvatarSize
	}

	dc := gg.NewContext(avatarCanvas, avatarCanvas)
	dc.SetColor(AvatarColor(name))
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(Initials(name), avatarCanvas/2, avatarCanvas/2, 0.5, 0.35)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), dc.Image(), dc.Image().Bounds(), draw.Src, nil)

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
