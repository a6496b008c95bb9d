package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"
	"io"
	"strings"
)

const (
	cr = '\r'
	lf = '\n'
)

// Pair is a single (name, value) element of an ordered header or query
// parameter sequence. A query parameter supplied without a value carries an
// empty Value; the canonical form renders both the same way.
type Pair struct {
	Name  string
	Value string
}

const upperhex = "0123456789ABCDEF"

// uriEncode percent-encodes s the way the signing protocol requires:
// unreserved characters (A-Z, a-z, 0-9, '-', '.', '_', '~') pass through,
// everything else becomes %XX per byte. The path separator '/' is kept
// verbatim unless encodeSlash is set; paths encode with encodeSlash false,
// query parameter names and values with encodeSlash true.
func uriEncode(s string, encodeSlash bool) string {
	b := new(strings.Builder)
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		case c == '/' && !encodeSlash:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		}
	}
	return b.String()
}

func sha256Hash(data []byte) []byte {
	h := sha256.New()
	h.Write(data)
	return h.Sum(nil)
}

func hmacSHA256(key []byte, s string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(s))
	return h.Sum(nil)
}

// hashBuilder is a strings.Builder-alike that feeds a hash instead of a
// buffer.
type hashBuilder struct {
	h hash.Hash
}

func newHashBuilder(newHash func() hash.Hash) *hashBuilder {
	return &hashBuilder{h: newHash()}
}

func (b *hashBuilder) Write(p []byte) {
	b.h.Write(p)
}

func (b *hashBuilder) WriteString(s string) {
	io.WriteString(b.h, s)
}

func (b *hashBuilder) WriteByte(c byte) {
	b.h.Write([]byte{c})
}

func (b *hashBuilder) Sum() []byte {
	return b.h.Sum(nil)
}
