package storage

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"path"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Feed thumbnails are center-cropped to a fixed banner shape.
const (
	ThumbWidth       = 960
	ThumbHeight      = 339
	ThumbJPEGQuality = 82
)

// ThumbsDir holds generated thumbnails, relative to the media root.
var ThumbsDir = path.Join(PostsDir, "thumbs")

// thumbnailRef derives the thumbnail reference for an original image.
func thumbnailRef(ref string) string {
	name := path.Base(ref)
	return path.Join(ThumbsDir, strings.TrimSuffix(name, path.Ext(name))+".jpg")
}

// renderThumbnail decodes content, crops it around the center to the
// thumbnail aspect ratio and scales it to ThumbWidth x ThumbHeight.
func renderThumbnail(content []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	x, y, w, h := centerCrop(src.Bounds().Dx(), src.Bounds().Dy(), float64(ThumbWidth)/float64(ThumbHeight))
	origin := src.Bounds().Min
	cropped := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(cropped, cropped.Bounds(), src, image.Point{X: origin.X + x, Y: origin.Y + y}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, ThumbWidth, ThumbHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: ThumbJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// centerCrop returns the largest rectangle of the given aspect ratio
// centered inside a w x h image.
func centerCrop(w, h int, ratio float64) (x, y, cropW, cropH int) {
	if w <= 0 || h <= 0 {
		return 0, 0, w, h
	}
	if float64(w)/float64(h) > ratio {
		cropH = h
		cropW = int(math.Round(float64(h) * ratio))
	} else {
		cropW = w
		cropH = int(math.Round(float64(w) / ratio))
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	return (w - cropW) / 2, (h - cropH) / 2, cropW, cropH
}
