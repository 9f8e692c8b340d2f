package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"sort"
	"strings"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// placeholderColor fills the generated artwork when there is no cover and
// no default image
var placeholderColor = color.RGBA{0x80, 0x80, 0x80, 0xff}

// decodeArtworkData decodes embedded cover bytes into an image.Image
func decodeArtworkData(imgData []byte) (image.Image, error) {
	if len(imgData) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	return img, nil
}

// defaultArtwork loads the configured default cover, or generates a plain
// square when it is missing or unreadable
func defaultArtwork(path string, size int) image.Image {
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if img, err := decodeArtworkData(data); err == nil {
				return img
			}
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{placeholderColor}, image.Point{}, draw.Src)
	return img
}

// roundedMask is an alpha mask for a size x size square with rounded corners
type roundedMask struct {
	size   int
	radius int
}

func (m roundedMask) ColorModel() color.Model { return color.AlphaModel }
func (m roundedMask) Bounds() image.Rectangle  { return image.Rect(0, 0, m.size, m.size) }

func (m roundedMask) At(x, y int) color.Color {
	r := m.radius
	if r <= 0 {
		return color.Alpha{255}
	}
	// Distance is only checked inside the four corner boxes
	cx, cy := -1, -1
	switch {
	case x < r:
		cx = r
	case x >= m.size-r:
		cx = m.size - r - 1
	}
	switch {
	case y < r:
		cy = r
	case y >= m.size-r:
		cy = m.size - r - 1
	}
	if cx < 0 || cy < 0 {
		return color.Alpha{255}
	}
	dx, dy := x-cx, y-cy
	if dx*dx+dy*dy > r*r {
		return color.Alpha{0}
	}
	return color.Alpha{255}
}

// shapeArtwork crops img to a centred square, scales it to size pixels and
// clips the corners to radius
func shapeArtwork(img image.Image, size, radius int) image.Image {
	bounds := img.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	square := imaging.CropCenter(img, side, side)
	scaled := resize.Resize(uint(size), uint(size), square, resize.Lanczos3)

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.DrawMask(out, out.Bounds(), scaled, scaled.Bounds().Min, roundedMask{size: size, radius: radius}, image.Point{}, draw.Over)
	return out
}

// Extract dominant color from image and convert to hex
// Uses a sampling approach to find vibrant, light colors suitable for dark backgrounds
func extractDominantColor(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	bounds := img.Bounds()

	// Sample every 5th pixel in both directions
	colorMap := make(map[uint32]int)
	sampleRate := 5

	for y := bounds.Min.Y; y < bounds.Max.Y; y += sampleRate {
		for x := bounds.Min.X; x < bounds.Max.X; x += sampleRate {
			r, g, b, a := img.At(x, y).RGBA()

			// Skip transparent pixels
			if a < 32768 {
				continue
			}

			rgb := (uint32(uint8(r>>8)) << 16) | (uint32(uint8(g>>8)) << 8) | uint32(uint8(b>>8))
			colorMap[rgb]++
		}
	}

	type colorScore struct {
		rgb   uint32
		score float64
	}

	var candidates []colorScore

	for rgb, count := range colorMap {
		rf := float64(uint8(rgb>>16)) / 255.0
		gf := float64(uint8(rgb>>8)) / 255.0
		bf := float64(uint8(rgb)) / 255.0

		hi := max(rf, gf, bf)
		lo := min(rf, gf, bf)
		lightness := (hi + lo) / 2.0

		var saturation float64
		if hi != lo {
			if lightness > 0.5 {
				saturation = (hi - lo) / (2.0 - hi - lo)
			} else {
				saturation = (hi - lo) / (hi + lo)
			}
		}

		// Too dark, near-white or washed out colors are unreadable as an accent
		if lightness < 0.3 || lightness > 0.85 || saturation < 0.25 {
			continue
		}

		lightnessScore := lightness
		if lightness > 0.7 {
			lightnessScore = 0.7 - (lightness - 0.7)
		}

		score := (saturation * 2.5) + (lightnessScore * 1.5) + (float64(count) / 1000.0)
		candidates = append(candidates, colorScore{rgb: rgb, score: score})
	}

	if len(candidates) == 0 {
		// Fallback: K-means when sampling found nothing usable
		colors, err := prominentcolor.Kmeans(img)
		if err != nil || len(colors) == 0 {
			return "", fmt.Errorf("no suitable colors found")
		}
		c := colors[0]
		return fmt.Sprintf("#%02x%02x%02x", c.Color.R, c.Color.G, c.Color.B), nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rgb < candidates[j].rgb
	})

	best := candidates[0].rgb
	return fmt.Sprintf("#%02x%02x%02x", uint8(best>>16), uint8(best>>8), uint8(best)), nil
}

// Check if terminal supports Kitty graphics protocol
func supportsKittyGraphics() bool {
	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	if strings.Contains(term, "kitty") || strings.Contains(term, "konsole") {
		return true
	}

	// Ghostty and WezTerm keep TERM=xterm-256color
	if termProgram == "ghostty" || termProgram == "WezTerm" {
		return true
	}

	return false
}

// encodeArtworkForKitty renders img as a Kitty graphics protocol sequence
func encodeArtworkForKitty(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	cfg := config.Get()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	// Kitty protocol needs chunking for large payloads (max 4096 bytes per chunk)
	const chunkSize = 4096
	var result strings.Builder

	// Use a fixed image ID and delete any previous image first
	const imageID = 42
	result.WriteString(fmt.Sprintf("\033_Ga=d,d=I,i=%d\033\\", imageID))

	if len(encoded) <= chunkSize {
		// Columns (c) instead of pixels keeps the size independent of font zoom
		result.WriteString(fmt.Sprintf("\033_Ga=T,f=100,t=d,i=%d,c=%d,C=1;%s\033\\", imageID, cfg.Artwork.WidthColumns, encoded))
		return result.String(), nil
	}

	for i := 0; i < len(encoded); i += chunkSize {
		end := i + chunkSize
		if end > len(encoded) {
			end = len(encoded)
		}
		chunk := encoded[i:end]

		switch {
		case i == 0:
			result.WriteString(fmt.Sprintf("\033_Ga=T,f=100,t=d,i=%d,c=%d,C=1,m=1;%s\033\\", imageID, cfg.Artwork.WidthColumns, chunk))
		case end == len(encoded):
			result.WriteString(fmt.Sprintf("\033_Gm=0;%s\033\\", chunk))
		default:
			result.WriteString(fmt.Sprintf("\033_Gm=1;%s\033\\", chunk))
		}
	}

	return result.String(), nil
}

// processArtwork decodes cover bytes once and returns the accent color
// (when requested) and the Kitty-encoded, shaped artwork
func processArtwork(artworkData []byte, extractColor bool) (color string, encoded string, err error) {
	img, err := decodeArtworkData(artworkData)
	if err != nil {
		return "", "", err
	}

	if extractColor {
		if c, err := extractDominantColor(img); err == nil && c != "" {
			color = c
		}
	}

	cfg := config.Get()
	shaped := shapeArtwork(img, cfg.Artwork.WidthPixels, cfg.Artwork.CornerRadius)
	encoded, err = encodeArtworkForKitty(shaped)
	if err != nil {
		return color, "", err
	}

	return color, encoded, nil
}

// renderTrackArtwork returns the encoded cover for a track, falling back to
// the default artwork when the track has none or it cannot be decoded.
// The color is only taken from a real cover.
func renderTrackArtwork(artworkData []byte, extractColor bool) (color string, encoded string) {
	defer func() {
		if r := recover(); r != nil {
			color, encoded = "", ""
		}
	}()

	if len(artworkData) > 0 {
		if c, enc, err := processArtwork(artworkData, extractColor); err == nil && enc != "" {
			return c, enc
		}
	}

	cfg := config.Get()
	img := defaultArtwork(cfg.Artwork.DefaultPath, cfg.Artwork.WidthPixels)
	shaped := shapeArtwork(img, cfg.Artwork.WidthPixels, cfg.Artwork.CornerRadius)
	enc, err := encodeArtworkForKitty(shaped)
	if err != nil {
		return "", ""
	}
	return "", enc
}
