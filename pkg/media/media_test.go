package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("photo.PNG", nil))
	assert.True(t, Allowed("a.b.jpeg", []string{"jpeg"}))
	assert.False(t, Allowed("script.exe", nil))
	assert.False(t, Allowed("noext", nil))
}

func TestSafeName(t *testing.T) {
	name, err := SafeName("../../etc/my photo!.png")
	require.NoError(t, err)
	parts := strings.SplitN(name, "_", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 8)
	assert.Equal(t, "my_photo_.png", parts[1])
	assert.NotContains(t, name, "/")
}

func TestThumbnailShrinksLargeImages(t *testing.T) {
	out, err := Thumbnail(encodePNG(t, 1000, 400), 500)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 500, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestThumbnailKeepsFormatAndSmallImages(t *testing.T) {
	small := encodePNG(t, 100, 100)
	out, err := Thumbnail(small, 500)
	require.NoError(t, err)
	assert.Equal(t, small, out)

	img := image.NewRGBA(image.Rect(0, 0, 300, 900))
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, img, nil))
	out, err = Thumbnail(buf.Bytes(), 300)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, err := Thumbnail([]byte("not an image"), 500)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AL", Initials("ada lovelace byron"))
	assert.Equal(t, "ÉÖ", Initials("élodie ödön"))
	assert.Equal(t, "AV", Initials("   "))
}

func TestAvatar(t *testing.T) {
	out, err := Avatar("Grace Hopper", 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, DefaultAvatarSize, img.Bounds().Dx())
	assert.Equal(t, DefaultAvatarSize, img.Bounds().Dy())

	r, g, b, _ := img.At(0, 0).RGBA()
	want := AvatarColor("Grace Hopper")
	assert.Equal(t, uint32(want.R), r>>8)
	assert.Equal(t, uint32(want.G), g>>8)
	assert.Equal(t, uint32(want.B), b>>8)
	assert.Equal(t, want, AvatarColor("  grace hopper "))
}
