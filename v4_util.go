package sigv4

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	awsISO8601Format = "20060102T150405Z"
	awsDateFormat    = "20060102"
)

type signingAlgorithm int

const (
	algorithmHMACSHA256 signingAlgorithm = iota
)

func (a signingAlgorithm) String() string {
	switch a {
	case algorithmHMACSHA256:
		return "HMAC-SHA256"
	default:
		return ""
	}
}

type signingAlgorithmSuffix int

const (
	algorithmSuffixNone signingAlgorithmSuffix = iota
	algorithmSuffixPayload
	algorithmSuffixTrailer
)

func (s signingAlgorithmSuffix) String() string {
	switch s {
	case algorithmSuffixPayload:
		return "PAYLOAD"
	case algorithmSuffixTrailer:
		return "TRAILER"
	default:
		return ""
	}
}

type signatureV4 []byte

func newSignatureV4FromDecoded(b []byte) (signatureV4, error) {
	if len(b) != signatureV4DecodedLength {
		return nil, errors.New("invalid signature length")
	}

	s := make(signatureV4, signatureV4DecodedLength)

	copy(s, b)

	return s, nil
}

func mustNewSignatureV4FromDecoded(b []byte) signatureV4 {
	s, err := newSignatureV4FromDecoded(b)
	if err != nil {
		panic(err)
	}

	return s
}

func (s signatureV4) compare(other signatureV4) bool {
	return subtle.ConstantTimeCompare(s, other) == 1
}

func (s signatureV4) String() string {
	return hex.EncodeToString(s)
}

// scope binds a signature to a date, region, and service, preventing reuse
// outside that context.
type scope struct {
	date    string // YYYYMMDD
	region  string
	service string
}

func (s scope) String() string {
	return s.date + "/" + s.region + "/" + s.service + "/aws4_request"
}

// signingKeyHMACSHA256 derives the scoped signing key: four chained
// HMAC-SHA256 steps, each keyed with the previous step's raw output.
func signingKeyHMACSHA256(secretAccessKey string, s scope) []byte {
	key := []byte("AWS4" + secretAccessKey)
	for _, msg := range []string{s.date, s.region, s.service, "aws4_request"} {
		key = hmacSHA256(key, msg)
	}
	return key
}

type signatureData struct {
	algorithm       signingAlgorithm
	algorithmSuffix signingAlgorithmSuffix
	dateTime        string
	scope           scope
	previous        signatureV4
	digest          []byte
}

func buildStringToSign(data signatureData) string {
	b := new(strings.Builder)

	b.WriteString("AWS4-")
	b.WriteString(data.algorithm.String())
	if data.algorithmSuffix != algorithmSuffixNone {
		b.WriteByte('-')
		b.WriteString(data.algorithmSuffix.String())
	}
	b.WriteByte(lf)
	b.WriteString(data.dateTime)
	b.WriteByte(lf)
	b.WriteString(data.scope.String())
	b.WriteByte(lf)

	if data.previous != nil {
		b.WriteString(data.previous.String())
		b.WriteByte(lf)
	}
	if data.algorithmSuffix == algorithmSuffixPayload {
		b.WriteString(emptyPayloadSHA256)
		b.WriteByte(lf)
	}

	hex.NewEncoder(b).Write(data.digest)

	return b.String()
}

func calculateSignature(data signatureData, secretAccessKey string) signatureV4 {
	key := signingKeyHMACSHA256(secretAccessKey, data.scope)
	return mustNewSignatureV4FromDecoded(hmacSHA256(key, buildStringToSign(data)))
}
