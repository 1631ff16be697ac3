package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/orchard/pkg/record"
)

// ErrRemoteImage is returned for http(s) image references; the compositor
// never fetches over the network.
var ErrRemoteImage = errors.New("remote images are not loaded")

// maxImageBytes caps a single decoded image source.
const maxImageBytes = 20 << 20

// ImageRef extracts an image reference from a record value: a string, or
// the url/src member of a mapping, or the first such entry of a list.
func ImageRef(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		for _, k := range []string{"url", "src"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
	case []any:
		for _, item := range t {
			if ref := ImageRef(item); ref != "" {
				return ref
			}
		}
	}
	return ""
}

// ImageRefs returns every image reference in a list value.
func ImageRefs(v any) []string {
	var refs []string
	for _, item := range record.AsArray(v) {
		if ref := ImageRef(item); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// LoadImage decodes a data URI, a file:// URL, or a path relative to
// baseDir. PNG, JPEG, GIF and WebP are supported.
func LoadImage(ref, baseDir string) (image.Image, error) {
	data, err := readImageRef(ref, baseDir)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func readImageRef(ref, baseDir string) ([]byte, error) {
	switch {
	case ref == "":
		return nil, errors.New("empty image reference")
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "//"):
		return nil, ErrRemoteImage
	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parse image url: %w", err)
		}
		return readCapped(u.Path)
	}
	path := ref
	if !filepath.IsAbs(path) {
		if baseDir == "" {
			return nil, fmt.Errorf("relative image %q without a base directory", ref)
		}
		path = filepath.Join(baseDir, filepath.Clean("/"+ref))
	}
	return readCapped(path)
}

func readCapped(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	if info.Size() > maxImageBytes {
		return nil, fmt.Errorf("image %s too large", filepath.Base(path))
	}
	return os.ReadFile(path)
}

func decodeDataURI(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, errors.New("malformed data uri")
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}
	return []byte(s), nil
}

// Cover scales and crops img to exactly w×h pixels, keeping the center.
func Cover(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return img
	}
	return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
}

// Contain scales img to fit within w×h pixels, keeping its aspect.
func Contain(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return img
	}
	return imaging.Fit(img, w, h, imaging.Lanczos)
}

// ApplyFilter applies a CSS-like image filter name.
func ApplyFilter(img image.Image, filter string) image.Image {
	switch strings.TrimSpace(filter) {
	case "grayscale", "grayscale(100%)":
		return imaging.Grayscale(img)
	case "sepia", "sepia(100%)":
		return imaging.AdjustFunc(img, sepia)
	case "blur", "blur(2px)":
		return imaging.Blur(img, 2)
	case "brightness", "brightness(1.2)":
		return imaging.AdjustBrightness(img, 20)
	case "contrast", "contrast(1.2)":
		return imaging.AdjustContrast(img, 20)
	default:
		return img
	}
}

func sepia(c color.NRGBA) color.NRGBA {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	return color.NRGBA{
		R: clampByte(0.393*r + 0.769*g + 0.189*b),
		G: clampByte(0.349*r + 0.686*g + 0.168*b),
		B: clampByte(0.272*r + 0.534*g + 0.131*b),
		A: c.A,
	}
}

func clampByte(v float64) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}
