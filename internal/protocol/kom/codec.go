package kom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// maxHollerith bounds the length of strings read from a server.
const maxHollerith = 1 << 20

var errMalformed = errors.New("kom: malformed reply")

// Charset returns the text encoding for a configured charset name. Unknown
// names fall back to ISO-8859-1, the traditional LysKOM encoding.
func Charset(name string) encoding.Encoding {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return encoding.Nop
	default:
		return charmap.ISO8859_1
	}
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokEOL
)

type token struct {
	kind tokenKind
	text string
}

// reader splits a reply stream into words, hollerith strings and line ends.
type reader struct {
	br  *bufio.Reader
	dec *encoding.Decoder
}

func newReader(r io.Reader, enc encoding.Encoding) *reader {
	return &reader{br: bufio.NewReader(r), dec: enc.NewDecoder()}
}

func (r *reader) next() (token, error) {
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			return token{}, err
		}
		switch b {
		case ' ', '\r':
			continue
		case '\n':
			return token{kind: tokEOL}, nil
		}
		if err := r.br.UnreadByte(); err != nil {
			return token{}, err
		}
		break
	}

	var sb strings.Builder
	digits := true
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return token{kind: tokWord, text: sb.String()}, nil
			}
			return token{}, err
		}
		if b == ' ' || b == '\n' || b == '\r' {
			if err := r.br.UnreadByte(); err != nil {
				return token{}, err
			}
			return token{kind: tokWord, text: sb.String()}, nil
		}
		if b == 'H' && digits && sb.Len() > 0 {
			return r.hollerith(sb.String())
		}
		if b < '0' || b > '9' {
			digits = false
		}
		sb.WriteByte(b)
	}
}

func (r *reader) hollerith(length string) (token, error) {
	n, err := strconv.Atoi(length)
	if err != nil || n > maxHollerith {
		return token{}, fmt.Errorf("%w: hollerith length %q", errMalformed, length)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return token{}, err
	}
	s, err := r.dec.Bytes(buf)
	if err != nil {
		return token{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return token{kind: tokString, text: string(s)}, nil
}

func (r *reader) word() (string, error) {
	t, err := r.next()
	if err != nil {
		return "", err
	}
	if t.kind != tokWord {
		return "", fmt.Errorf("%w: expected word", errMalformed)
	}
	return t.text, nil
}

func (r *reader) int() (int, error) {
	w, err := r.word()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		return 0, fmt.Errorf("%w: expected integer, got %q", errMalformed, w)
	}
	return n, nil
}

func (r *reader) string() (string, error) {
	t, err := r.next()
	if err != nil {
		return "", err
	}
	if t.kind != tokString {
		return "", fmt.Errorf("%w: expected string", errMalformed)
	}
	return t.text, nil
}

func (r *reader) bits() ([]bool, error) {
	w, err := r.word()
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(w))
	for i := 0; i < len(w); i++ {
		switch w[i] {
		case '0':
		case '1':
			out[i] = true
		default:
			return nil, fmt.Errorf("%w: bad bitstring %q", errMalformed, w)
		}
	}
	return out, nil
}

// array reads "n { e1 ... en }", "0 *" or "n *" and calls elem once per
// element present.
func (r *reader) array(elem func() error) (int, error) {
	n, err := r.int()
	if err != nil {
		return 0, err
	}
	open, err := r.word()
	if err != nil {
		return 0, err
	}
	switch open {
	case "*":
		return n, nil
	case "{":
	default:
		return 0, fmt.Errorf("%w: expected array, got %q", errMalformed, open)
	}
	for i := 0; i < n; i++ {
		if err := elem(); err != nil {
			return 0, err
		}
	}
	if closing, err := r.word(); err != nil {
		return 0, err
	} else if closing != "}" {
		return 0, fmt.Errorf("%w: unterminated array", errMalformed)
	}
	return n, nil
}

// endLine consumes the rest of the current line.
func (r *reader) endLine() error {
	for {
		t, err := r.next()
		if err != nil {
			return err
		}
		if t.kind == tokEOL {
			return nil
		}
	}
}

// request builds one Protocol A request line.
type request struct {
	sb  strings.Builder
	enc *encoding.Encoder
	err error
}

func newRequest(enc encoding.Encoding, ref, call int) *request {
	r := &request{enc: enc.NewEncoder()}
	r.sb.WriteString(strconv.Itoa(ref))
	r.sb.WriteByte(' ')
	r.sb.WriteString(strconv.Itoa(call))
	return r
}

func (r *request) int(n int) *request {
	r.sb.WriteByte(' ')
	r.sb.WriteString(strconv.Itoa(n))
	return r
}

func (r *request) bool(b bool) *request {
	if b {
		return r.int(1)
	}
	return r.int(0)
}

func (r *request) string(s string) *request {
	b, err := r.enc.Bytes([]byte(s))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("kom: cannot encode %q: %w", s, err)
	}
	r.sb.WriteByte(' ')
	r.sb.WriteString(hollerith(b))
	return r
}

func (r *request) bits(bs ...bool) *request {
	r.sb.WriteByte(' ')
	for _, b := range bs {
		if b {
			r.sb.WriteByte('1')
		} else {
			r.sb.WriteByte('0')
		}
	}
	return r
}

func (r *request) emptyArray() *request {
	r.sb.WriteString(" 0 { }")
	return r
}

func (r *request) bytes() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.sb.String() + "\n"), nil
}

func hollerith(b []byte) string {
	return strconv.Itoa(len(b)) + "H" + string(b)
}
