package kom

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

func TestReader_Tokens(t *testing.T) {
	r := newReader(strings.NewReader("=7 5Ha b\nc 0H 12 01101 *\n"), charmap.ISO8859_1)

	w, err := r.word()
	require.NoError(t, err)
	assert.Equal(t, "=7", w)

	s, err := r.string()
	require.NoError(t, err)
	assert.Equal(t, "a b\nc", s)

	s, err = r.string()
	require.NoError(t, err)
	assert.Equal(t, "", s)

	n, err := r.int()
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	bits, err := r.bits()
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false, true}, bits)

	w, err = r.word()
	require.NoError(t, err)
	assert.Equal(t, "*", w)

	tok, err := r.next()
	require.NoError(t, err)
	assert.Equal(t, tokEOL, tok.kind)
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		read  func(*reader) error
	}{
		{"int expected", "abc ", func(r *reader) error { _, err := r.int(); return err }},
		{"string expected", "12 ", func(r *reader) error { _, err := r.string(); return err }},
		{"bad bits", "0120 ", func(r *reader) error { _, err := r.bits(); return err }},
		{"bad array", "2 ( ", func(r *reader) error {
			_, err := r.array(func() error { return nil })
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(newReader(strings.NewReader(tt.input), encoding.Nop))
			assert.True(t, errors.Is(err, errMalformed), "got %v", err)
		})
	}
}

func TestReader_Array(t *testing.T) {
	r := newReader(strings.NewReader("3 { 1 2 3 } 0 * 4 *\n"), encoding.Nop)

	var got []int
	n, err := r.array(func() error {
		v, err := r.int()
		got = append(got, v)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2, 3}, got)

	n, err = r.array(func() error { t.Fatal("no elements expected"); return nil })
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = r.array(func() error { t.Fatal("no elements expected"); return nil })
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRequest_Encoding(t *testing.T) {
	b, err := newRequest(charmap.ISO8859_1, 3, 62).int(5).string("lösen").bool(false).bytes()
	require.NoError(t, err)
	assert.Equal(t, "3 62 5 5Hl\xf6sen 0\n", string(b))

	b, err = newRequest(encoding.Nop, 4, 62).string("lösen").bytes()
	require.NoError(t, err)
	assert.Equal(t, "4 62 6Hlösen\n", string(b))

	b, err = newRequest(encoding.Nop, 1, 80).emptyArray().bytes()
	require.NoError(t, err)
	assert.Equal(t, "1 80 0 { }\n", string(b))

	b, err = newRequest(encoding.Nop, 2, 100).bits(true, false, true).bytes()
	require.NoError(t, err)
	assert.Equal(t, "2 100 101\n", string(b))
}

func TestRequest_Unencodable(t *testing.T) {
	_, err := newRequest(charmap.ISO8859_1, 1, 76).string("日本").bytes()
	assert.Error(t, err)
}

func TestCharset(t *testing.T) {
	assert.Equal(t, encoding.Nop, Charset("UTF-8"))
	assert.Equal(t, charmap.ISO8859_1, Charset("latin1"))
	assert.Equal(t, charmap.ISO8859_1, Charset(""))
}
