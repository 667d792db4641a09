package qrcode

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainnetAddr = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"

func TestEncode(t *testing.T) {
	b, err := Encode(mainnetAddr)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, b.Size, 21)
	assert.Equal(t, 1, b.Size%4, "QR sizes are 17 + 4*version")

	// Finder pattern in the top-left corner: dark ring, light ring, dark core.
	assert.True(t, b.Dark(0, 0))
	assert.True(t, b.Dark(6, 0))
	assert.True(t, b.Dark(0, 6))
	assert.True(t, b.Dark(6, 6))
	assert.False(t, b.Dark(1, 1))
	assert.False(t, b.Dark(5, 5))
	assert.True(t, b.Dark(3, 3))
	// Separator next to it is light.
	assert.False(t, b.Dark(7, 0))

	assert.False(t, b.Dark(-1, 0))
	assert.False(t, b.Dark(b.Size, 0))
}

func TestEncode_Deterministic(t *testing.T) {
	a, err := Encode(mainnetAddr)
	require.NoError(t, err)
	b, err := Encode(mainnetAddr)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Encode("  \t")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Encode(strings.Repeat("x", 4000))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestRender(t *testing.T) {
	b, err := Encode(mainnetAddr)
	require.NoError(t, err)

	out := Render(b, false)
	lines := strings.Split(out, "\n")
	width, height := Dimensions(b)

	assert.Len(t, lines, height)
	for _, line := range lines {
		assert.Equal(t, width, utf8.RuneCountInString(line))
	}

	// The quiet zone is light, which is inked on a dark terminal.
	assert.True(t, strings.HasPrefix(lines[0], "██"))
}

func TestRender_DarkOnLight(t *testing.T) {
	b, err := Encode(mainnetAddr)
	require.NoError(t, err)

	lines := strings.Split(Render(b, true), "\n")
	// First line covers quiet-zone rows 0 and 1, so it's blank.
	assert.Equal(t, strings.Repeat(" ", b.Size+2*QuietZone), lines[0])
	// Second line covers module rows 0 and 1, starting with the finder pattern.
	assert.True(t, strings.HasPrefix(lines[1], "  █"))
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", Render(Bitmap{}, false))
	w, h := Dimensions(Bitmap{})
	assert.Zero(t, w)
	assert.Zero(t, h)
}
