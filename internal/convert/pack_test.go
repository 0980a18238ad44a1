package convert

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whiteImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{255, 255, 255, 255}), image.Point{}, draw.Src)
	return img
}

func TestPackRejectsWrongWidth(t *testing.T) {
	_, _, err := PackNRGBA(whiteImage(640, EPDHeight))
	assert.Error(t, err)
}

func TestPackRejectsShortHeight(t *testing.T) {
	_, _, err := PackNRGBA(whiteImage(EPDWidth, 100))
	assert.Error(t, err)
}

func TestPackAllWhite(t *testing.T) {
	black, red, err := PackNRGBA(whiteImage(EPDWidth, EPDHeight))
	require.NoError(t, err)
	require.Len(t, black, EPDPlaneSize)
	require.Len(t, red, EPDPlaneSize)

	for i := range black {
		assert.EqualValues(t, 0xFF, black[i])
		assert.EqualValues(t, 0xFF, red[i])
	}
}

func TestPackBlackPixelClearsBit(t *testing.T) {
	img := whiteImage(EPDWidth, EPDHeight)
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})
	img.SetNRGBA(9, 2, color.NRGBA{10, 10, 10, 255})

	black, red, err := PackNRGBA(img)
	require.NoError(t, err)

	// (0,0): first byte, MSB cleared.
	assert.EqualValues(t, 0x7F, black[0])
	// (9,2): row 2, second byte, bit 1 from MSB.
	assert.EqualValues(t, 0xBF, black[2*EPDByteStride+1])
	// Black ink never touches the red plane.
	assert.EqualValues(t, 0xFF, red[0])
}

func TestPackRedPixelClearsRedPlane(t *testing.T) {
	img := whiteImage(EPDWidth, EPDHeight)
	img.SetNRGBA(8, 0, color.NRGBA{255, 0, 0, 255})

	black, red, err := PackNRGBA(img)
	require.NoError(t, err)

	assert.EqualValues(t, 0x7F, red[1])
	assert.EqualValues(t, 0xFF, black[1])
}

func TestPackTransparentIsWhite(t *testing.T) {
	img := whiteImage(EPDWidth, EPDHeight)
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 0})

	black, _, err := PackNRGBA(img)
	require.NoError(t, err)
	assert.EqualValues(t, 0xFF, black[0])
}

func TestPackCenterCropsTallImages(t *testing.T) {
	tall := whiteImage(EPDWidth, EPDHeight+40)
	// 20 rows are cropped off the top, so source row 20 becomes panel row 0.
	tall.SetNRGBA(0, 20, color.NRGBA{0, 0, 0, 255})

	black, _, err := PackNRGBA(tall)
	require.NoError(t, err)
	assert.EqualValues(t, 0x7F, black[0])
}

func TestClassifyPixel(t *testing.T) {
	cases := []struct {
		name string
		c    color.NRGBA
		want inkColor
	}{
		{"pure black", color.NRGBA{0, 0, 0, 255}, inkBlack},
		{"dark grey", color.NRGBA{40, 40, 40, 255}, inkBlack},
		{"pure red", color.NRGBA{255, 0, 0, 255}, inkRed},
		{"muted red", color.NRGBA{180, 60, 60, 255}, inkRed},
		{"white", color.NRGBA{255, 255, 255, 255}, inkWhite},
		{"light grey", color.NRGBA{230, 230, 230, 255}, inkWhite},
		{"pale pink, not red enough", color.NRGBA{250, 230, 230, 255}, inkWhite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyPixel(tc.c))
		})
	}
}
