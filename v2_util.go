package sigv4

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
)

const signatureV2DecodedLength = 20

type signatureV2 []byte

func (s signatureV2) compare(other signatureV2) bool {
	return subtle.ConstantTimeCompare(s, other) == 1
}

func (s signatureV2) String() string {
	return base64.StdEncoding.EncodeToString(s)
}

func hmacSHA1(key []byte, s string) []byte {
	h := hmac.New(sha1.New, key)
	h.Write([]byte(s))
	return h.Sum(nil)
}

// calculateSignatureV2 signs an arbitrary string-to-sign, e.g. a POST
// policy document.
func calculateSignatureV2(stringToSign string, secretAccessKey string) signatureV2 {
	return hmacSHA1([]byte(secretAccessKey), stringToSign)
}
