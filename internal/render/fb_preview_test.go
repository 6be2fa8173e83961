package render

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/marquee/internal/state"
)

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func encodeTestGIF(t *testing.T, frames, delay int) []byte {
	t.Helper()
	pal := color.Palette{color.RGBA{}, color.RGBA{R: 0xFF, A: 0xFF}}
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, 8, 8), pal)
		img.SetColorIndex(i%8, 0, 1)
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, anim))
	return buf.Bytes()
}

func TestComposePreviewColumns(t *testing.T) {
	red := color.RGBA{R: 0xFF, A: 0xFF}
	green := color.RGBA{G: 0xFF, A: 0xFF}
	dst := image.NewRGBA(image.Rect(0, 0, 100, 40))

	composePreview(dst, []image.Image{solid(red), solid(green)})

	assert.Equal(t, PreviewBackground, dst.RGBAAt(1, 1), "letterbox")
	assert.Equal(t, red, dst.RGBAAt(20, 20))
	assert.Equal(t, green, dst.RGBAAt(70, 20))
	assert.Equal(t, PreviewBackground, dst.RGBAAt(50, 20), "gap between squares")
}

func TestComposePreviewKeepsBackgroundBehindTransparency(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	composePreview(dst, []image.Image{solid(color.RGBA{})})
	assert.Equal(t, PreviewBackground, dst.RGBAAt(5, 5))
}

func TestDecodeResultSet(t *testing.T) {
	rs := state.NewResultSet(3, []state.File{
		{Name: "a.gif", Data: encodeTestGIF(t, 5, 4)},
		{Name: "a-2.gif", Data: encodeTestGIF(t, 5, 4)},
	})
	anim, err := decodeResultSet(rs)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), anim.token)
	assert.Equal(t, 5, anim.frames)
	assert.Equal(t, 40*time.Millisecond, anim.delay)
	assert.Len(t, anim.frame(7), 2)

	fast := state.NewResultSet(4, []state.File{{Name: "f.gif", Data: encodeTestGIF(t, 2, 0)}})
	anim, err = decodeResultSet(fast)
	require.NoError(t, err)
	assert.Equal(t, minPreviewDelay, anim.delay)

	broken := state.NewResultSet(5, []state.File{{Name: "x.gif", Data: []byte("nope")}})
	_, err = decodeResultSet(broken)
	assert.Error(t, err)

	rs.Release()
	_, err = decodeResultSet(rs)
	assert.ErrorIs(t, err, state.ErrReleased)
}

func TestBlitToFBForcesOpaque(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 4, 4))
	canvas.SetRGBA(1, 1, color.RGBA{R: 0x80, A: 0x80})
	dev := image.NewRGBA(image.Rect(0, 0, 2, 2))

	blitToFB(dev, canvas)
	assert.Equal(t, color.RGBA{R: 0x80, A: 0xFF}, dev.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{A: 0xFF}, dev.RGBAAt(0, 0))
}
