// Package media validates uploaded photos, shrinks them to thumbnails and
// renders initials avatars for people without a photo.
package media

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/big"
	"path"
	"regexp"
	"strings"

	"golang.org/x/image/draw"
)

// DefaultAllowedExtensions lists the photo formats accepted on upload.
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "gif"}

// Validation errors.
var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrTooLarge             = errors.New("file exceeds size limit")
	ErrNotAnImage           = errors.New("file is not a decodable image")
)

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// Allowed reports whether name has one of the allowed extensions.
func Allowed(name string, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = DefaultAllowedExtensions
	}
	ext := Extension(name)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// SafeName strips directory components and unsafe characters from name and
// prefixes it with eight random characters.
func SafeName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "file"
	}
	prefix, err := RandomString(8)
	if err != nil {
		return "", err
	}
	return prefix + "_" + base, nil
}

// RandomString returns n characters drawn from [A-Za-z0-9].
func RandomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate random name: %w", err)
		}
		out[i] = randomAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// Thumbnail scales data down so neither side exceeds maxSide, keeping the
// aspect ratio and the original encoding. Images already within bounds are
// returned unchanged.
func Thumbnail(data []byte, maxSide int) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotAnImage
	}
	if maxSide <= 0 || (cfg.Width <= maxSide && cfg.Height <= maxSide) {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotAnImage
	}

	w, h := fit(cfg.Width, cfg.Height, maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	buf := &bytes.Buffer{}
	switch format {
	case "jpeg":
		err = jpeg.Encode(buf, dst, &jpeg.Options{Quality: 85})
	case "gif":
		err = gif.Encode(buf, dst, nil)
	default:
		err = png.Encode(buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func fit(w, h, maxSide int) (int, int) {
	if w >= h {
		nh := h * maxSide / w
		if nh < 1 {
			nh = 1
		}
		return maxSide, nh
	}
	nw := w * maxSide / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxSide
}
