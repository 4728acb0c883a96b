package transfer

import (
	"strings"
	"testing"
	"time"

	"github.com/ruteri/docvault/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBundle() *interfaces.TransferBundle {
	return &interfaces.TransferBundle{
		Version:    interfaces.TransferBundleVersion,
		Name:       "Work",
		Salt:       []byte("0123456789abcdef"),
		Payload:    strings.Repeat("QUJDRA==", 40),
		ExportedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestEncodeDecode(t *testing.T) {
	encoded, err := Encode(testBundle())
	require.NoError(t, err)
	assert.NotContains(t, encoded, ":")

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, testBundle(), decoded)

	_, err = Decode("%%%")
	assert.ErrorIs(t, err, interfaces.ErrInvalidBundle)

	_, err = Decode(`{"version":1,"name":"Work"}`)
	assert.ErrorIs(t, err, interfaces.ErrInvalidBundle)

	_, err = Encode(&interfaces.TransferBundle{Version: 1})
	assert.ErrorIs(t, err, interfaces.ErrInvalidBundle)
}

func TestDecode_PlainJSON(t *testing.T) {
	decoded, err := Decode(`{"version":1,"name":"Work","salt":"MDEyMzQ1Njc4OWFiY2RlZg==","payload":"abc","exportedAt":"2024-05-01T10:00:00Z"}`)
	require.NoError(t, err)
	assert.Equal(t, "Work", decoded.Name)
	assert.Equal(t, []byte("0123456789abcdef"), decoded.Salt)
}

func TestSplit(t *testing.T) {
	chunks := Split("abcdefgh", 3)
	assert.Equal(t, []string{"DVX1:0:3:abc", "DVX1:1:3:def", "DVX1:2:3:gh"}, chunks)

	assert.Equal(t, []string{"DVX1:0:1:abc"}, Split("abc", 0))
	assert.Equal(t, []string{"DVX1:0:1:"}, Split("", 10))
}

func TestAssembler_OutOfOrder(t *testing.T) {
	encoded, err := Encode(testBundle())
	require.NoError(t, err)
	chunks := Split(encoded, (len(encoded)+2)/3)
	require.Len(t, chunks, 3)

	a := NewAssembler()
	for _, i := range []int{1, 0} {
		added, err := a.Add(chunks[i])
		require.NoError(t, err)
		assert.True(t, added)
		assert.False(t, a.IsComplete())
	}

	added, err := a.Add(chunks[1])
	require.NoError(t, err)
	assert.False(t, added, "repeats are ignored")

	seen, total := a.Progress()
	assert.Equal(t, 2, seen)
	assert.Equal(t, 3, total)
	_, err = a.Assemble()
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = a.Add(chunks[2])
	require.NoError(t, err)
	assert.True(t, a.IsComplete())

	assembled, err := a.Assemble()
	require.NoError(t, err)
	assert.Equal(t, encoded, assembled)

	decoded, err := Decode(assembled)
	require.NoError(t, err)
	assert.Equal(t, testBundle(), decoded)
}

func TestAssembler_RejectsMismatchedTotal(t *testing.T) {
	a := NewAssembler()
	_, err := a.Add("DVX1:0:3:abc")
	require.NoError(t, err)

	_, err = a.Add("DVX1:1:4:def")
	assert.ErrorIs(t, err, ErrInvalidChunk)

	seen, total := a.Progress()
	assert.Equal(t, 1, seen)
	assert.Equal(t, 3, total)

	a.Reset()
	seen, total = a.Progress()
	assert.Equal(t, 0, seen)
	assert.Equal(t, 0, total)
	assert.False(t, a.IsComplete())

	_, err = a.Add("DVX1:1:4:def")
	assert.NoError(t, err)
}

func TestParseChunk_Invalid(t *testing.T) {
	for _, s := range []string{
		"abc",
		"DVX1:",
		"DVX1:0:abc",
		"DVX1:x:3:abc",
		"DVX1:0:y:abc",
		"DVX1:3:3:abc",
		"DVX1:-1:3:abc",
		"DVX1:0:0:abc",
		"DVX2:0:1:abc",
	} {
		_, err := ParseChunk(s)
		assert.ErrorIs(t, err, ErrInvalidChunk, s)
	}
}

func TestParse(t *testing.T) {
	encoded, err := Encode(testBundle())
	require.NoError(t, err)

	fromClipboard, err := Parse("  " + encoded + "\n")
	require.NoError(t, err)
	assert.Equal(t, testBundle(), fromClipboard)

	chunks := Split(encoded, 64)
	scanned := append([]string{chunks[len(chunks)-1]}, chunks...)
	fromCodes, err := Parse(strings.Join(scanned, "\n"))
	require.NoError(t, err)
	assert.Equal(t, testBundle(), fromCodes)

	_, err = Parse(strings.Join(chunks[1:], "\n"))
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = Parse("   ")
	assert.ErrorIs(t, err, interfaces.ErrInvalidBundle)
}
