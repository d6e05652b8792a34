package fingerprint

import (
	"bytes"
	"image"
	"net/url"
	"strings"

	"logocluster/pkg/serrors"

	"github.com/disintegration/imaging"
	// extra formats seen on logo hosts; png, jpeg and gif come with imaging
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds the decoded image area.
const DefaultMaxPixels = 40_000_000

var rejectedExtensions = []string{".svg", ".php", ".gif"}

// Supported reports whether rawURL may be fetched and hashed. Vector images,
// scripts and animations are rejected, as is anything that is not http(s).
// It never touches the network.
func Supported(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return serrors.Wrap(serrors.ErrUnsupported, err, "invalid image URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return serrors.With(serrors.ErrUnsupported, "unsupported image scheme %q", u.Scheme)
	}

	path := strings.ToLower(u.Path)
	for _, ext := range rejectedExtensions {
		if strings.Contains(path, ext) {
			return serrors.With(serrors.ErrUnsupported, "unsupported image type %s", ext)
		}
	}

	return nil
}

// Decode decodes an image, applies its EXIF orientation and normalises it to
// opaque RGB. Images whose area exceeds maxPixels are rejected before the
// pixel data is decoded; maxPixels <= 0 means DefaultMaxPixels.
func Decode(data []byte, maxPixels int) (image.Image, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrMalformed, err, "could not read image header")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return nil, serrors.With(serrors.ErrMalformed, "%s image of %dx%d is out of bounds", format, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrMalformed, err, "could not decode %s image", format)
	}

	return toRGB(img), nil
}

// toRGB drops alpha and expands palettes.
func toRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}

	return out
}
