package sigv4

import (
	"bytes"
	"errors"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	headerAuthorization            = "authorization"
	headerContentEncoding          = "content-encoding"
	headerContentLength            = "content-length"
	headerContentMD5               = "content-md5"
	headerContentType              = "content-type"
	headerDate                     = "date"
	headerUserAgent                = "user-agent"
	headerXAmzContentSha256        = "x-amz-content-sha256"
	headerXAmzDate                 = "x-amz-date"
	headerXAmzDecodedContentLength = "x-amz-decoded-content-length"

	queryXAmzAlgorithm     = "X-Amz-Algorithm"
	queryXAmzCredential    = "X-Amz-Credential"
	queryXAmzDate          = "X-Amz-Date"
	queryXAmzExpires       = "X-Amz-Expires"
	queryXAmzSignedHeaders = "X-Amz-SignedHeaders"
	queryXAmzSignature     = "X-Amz-Signature"

	v4SigningAlgorithm = "AWS4-HMAC-SHA256"
	serviceS3          = "s3"

	unsignedPayload                = "UNSIGNED-PAYLOAD"
	streamingAWS4HMACSHA256Payload = "STREAMING-AWS4-HMAC-SHA256-PAYLOAD"
	contentEncodingAWSChunked      = "aws-chunked"

	emptyPayloadSHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	signatureV4DecodedLength = 32
	signatureV4EncodedLength = 64

	chunkMinLength       = 8000 // service minimum for all but the final chunk
	chunkSignatureHeader = "chunk-signature="
)

// Credentials is the access key pair a signer signs with.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// RequestInfo describes the request to sign. It is consumed by value and
// never mutated; the signer works on derived copies.
//
// Path is the raw, unencoded URL path ("" counts as "/"). Headers and Query
// are the ordered (name, value) sequences as they will be sent; the host
// header must be included by the caller since it participates in signing.
// PayloadHash is the precomputed lowercase hex SHA-256 of the body, or ""
// for an unsigned payload. Region overrides the signer's default when set.
type RequestInfo struct {
	Method      string
	Path        string
	Headers     []Pair
	Query       []Pair
	PayloadHash string
	Region      string
}

// V4 signs requests with Signature Version 4. The zero wall clock read per
// call is the only impurity; a V4 value is immutable after construction and
// safe for concurrent use.
type V4 struct {
	credentials Credentials
	region      string

	now func() time.Time
}

func NewV4(credentials Credentials, region string) *V4 {
	return &V4{
		credentials: credentials,
		region:      region,
		now:         time.Now,
	}
}

// Headers that never participate in V4 signing, by case-folded name.
var excludedHeaders = map[string]struct{}{
	headerAuthorization: {},
	headerContentType:   {},
	headerContentLength: {},
	headerUserAgent:     {},
}

// headersToSign selects and normalizes the headers that participate in
// signing: names are case-folded, values trimmed of surrounding whitespace
// (interior whitespace is kept as-is), duplicates resolve last-value-wins.
func headersToSign(headers []Pair) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		name := strings.ToLower(h.Name)
		if _, ok := excludedHeaders[name]; ok {
			continue
		}
		m[name] = strings.TrimSpace(h.Value)
	}
	return m
}

func sortedHeaderNames(headers map[string]string) []string {
	names := slices.Collect(maps.Keys(headers))
	slices.Sort(names)
	return names
}

// canonicalQuery renders the canonical query string: every name and value
// percent-encoded (slashes included), pairs sorted by encoded name and then
// by encoded value, byte-wise.
func canonicalQuery(query []Pair) string {
	encoded := make([]Pair, 0, len(query))
	for _, p := range query {
		encoded = append(encoded, Pair{uriEncode(p.Name, true), uriEncode(p.Value, true)})
	}
	slices.SortFunc(encoded, func(a, b Pair) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})

	b := new(strings.Builder)
	for i, p := range encoded {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

func canonicalRequest(method, path string, query []Pair, headers map[string]string, payloadHash string) string {
	if path == "" {
		path = "/"
	}
	if payloadHash == "" {
		payloadHash = unsignedPayload
	}

	names := sortedHeaderNames(headers)

	b := new(strings.Builder)
	b.WriteString(method)
	b.WriteByte(lf)
	b.WriteString(uriEncode(path, false))
	b.WriteByte(lf)
	b.WriteString(canonicalQuery(query))
	b.WriteByte(lf)
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(headers[name])
		b.WriteByte(lf)
	}
	b.WriteByte(lf)
	b.WriteString(strings.Join(names, ";"))
	b.WriteByte(lf)
	b.WriteString(payloadHash)
	return b.String()
}

// signV4Data is everything a single signing invocation computed. It lives
// for the duration of that call only.
type signV4Data struct {
	dateTime         string
	scope            scope
	headersToSign    map[string]string
	signedHeaders    string
	canonicalRequest string
	stringToSign     string
	signingKey       []byte
	signature        signatureV4
	output           []Pair
}

func (v4 *V4) signRequest(info RequestInfo, expires int64, presigned bool) signV4Data {
	region := info.Region
	if region == "" {
		region = v4.region
	}

	dateTime := v4.now().UTC().Format(awsISO8601Format)
	scope := scope{date: dateTime[:len(awsDateFormat)], region: region, service: serviceS3}

	headers := info.Headers
	if !presigned {
		headers = append(slices.Clone(headers), Pair{headerXAmzDate, dateTime})
	}
	toSign := headersToSign(headers)
	signedHeaders := strings.Join(sortedHeaderNames(toSign), ";")

	query := info.Query

	var output []Pair
	if presigned {
		output = []Pair{
			{queryXAmzAlgorithm, v4SigningAlgorithm},
			{queryXAmzCredential, v4.credentials.AccessKeyID + "/" + scope.String()},
			{queryXAmzDate, dateTime},
			{queryXAmzExpires, strconv.FormatInt(expires, 10)},
			{queryXAmzSignedHeaders, signedHeaders},
		}
		query = append(slices.Clone(query), output...)
	}

	canonical := canonicalRequest(info.Method, info.Path, query, toSign, info.PayloadHash)

	stringToSign := buildStringToSign(signatureData{
		algorithm: algorithmHMACSHA256,
		dateTime:  dateTime,
		scope:     scope,
		digest:    sha256Hash([]byte(canonical)),
	})

	signingKey := signingKeyHMACSHA256(v4.credentials.SecretAccessKey, scope)
	signature := mustNewSignatureV4FromDecoded(hmacSHA256(signingKey, stringToSign))

	if presigned {
		output = append(output, Pair{queryXAmzSignature, signature.String()})
	} else {
		authorization := v4SigningAlgorithm +
			" Credential=" + v4.credentials.AccessKeyID + "/" + scope.String() +
			", SignedHeaders=" + signedHeaders +
			", Signature=" + signature.String()
		output = []Pair{
			{headerAuthorization, authorization},
			{headerXAmzDate, dateTime},
		}
	}

	return signV4Data{
		dateTime:         dateTime,
		scope:            scope,
		headersToSign:    toSign,
		signedHeaders:    signedHeaders,
		canonicalRequest: canonical,
		stringToSign:     stringToSign,
		signingKey:       signingKey,
		signature:        signature,
		output:           output,
	}
}

// Sign authenticates a request through its headers. It returns exactly two
// pairs to merge into the outgoing request: the authorization value and the
// x-amz-date it covers.
func (v4 *V4) Sign(info RequestInfo) []Pair {
	return v4.signRequest(info, 0, false).output
}

// Presign makes a URL self-authenticating for expires. It returns the six
// query parameters to append to the request URL; no authorization header is
// produced. The expiry is rendered in whole seconds.
func (v4 *V4) Presign(info RequestInfo, expires time.Duration) []Pair {
	return v4.signRequest(info, int64(expires/time.Second), true).output
}

// SignChunked signs a streaming upload in the aws-chunked content encoding.
// It appends the encoding, decoded-length, and streaming payload-hash
// headers to the signed set, seeds the chunk signature chain with the
// resulting request signature, and returns all header pairs to merge into
// the outgoing request together with a reader that produces the framed and
// signed body. The transport Content-Length is ChunkedLength(decodedLength,
// chunkSize).
func (v4 *V4) SignChunked(info RequestInfo, body io.Reader, decodedLength int64, chunkSize int) ([]Pair, *ChunkedReader) {
	if chunkSize < chunkMinLength {
		chunkSize = chunkMinLength
	}

	added := []Pair{
		{headerContentEncoding, contentEncodingAWSChunked},
		{headerXAmzContentSha256, streamingAWS4HMACSHA256Payload},
		{headerXAmzDecodedContentLength, strconv.FormatInt(decodedLength, 10)},
	}

	info.Headers = append(slices.Clone(info.Headers), added...)
	info.PayloadHash = streamingAWS4HMACSHA256Payload

	data := v4.signRequest(info, 0, false)

	r := newChunkedReader(body, v4.credentials.SecretAccessKey, data.dateTime, data.scope, data.signature, chunkSize)

	return append(added, data.output...), r
}

// ChunkedLength is the encoded length of a payload of decodedLength bytes
// framed in chunkSize chunks, including the final zero-length chunk.
func ChunkedLength(decodedLength int64, chunkSize int) int64 {
	if chunkSize < chunkMinLength {
		chunkSize = chunkMinLength
	}

	chunk := func(n int64) int64 {
		meta := len(strconv.FormatInt(n, 16)) + 1 + len(chunkSignatureHeader) + signatureV4EncodedLength + 4
		return int64(meta) + n
	}

	total := decodedLength / int64(chunkSize) * chunk(int64(chunkSize))
	if rem := decodedLength % int64(chunkSize); rem > 0 {
		total += chunk(rem)
	}
	return total + chunk(0)
}

// ChunkedReader frames its source into aws-chunked chunks, each carrying a
// signature chained off the previous one. The final zero-length chunk closes
// the chain.
type ChunkedReader struct {
	src io.Reader

	secretAccessKey string
	dateTime        string
	scope           scope
	previous        signatureV4

	buf  []byte
	out  bytes.Buffer
	done bool
	err  error
}

func newChunkedReader(src io.Reader, secretAccessKey, dateTime string, scope scope, seed signatureV4, chunkSize int) *ChunkedReader {
	return &ChunkedReader{
		src:             src,
		secretAccessKey: secretAccessKey,
		dateTime:        dateTime,
		scope:           scope,
		previous:        seed,
		buf:             make([]byte, chunkSize),
	}
}

func (r *ChunkedReader) writeChunk(data []byte) {
	signature := calculateSignature(signatureData{
		algorithm:       algorithmHMACSHA256,
		algorithmSuffix: algorithmSuffixPayload,
		dateTime:        r.dateTime,
		scope:           r.scope,
		previous:        r.previous,
		digest:          sha256Hash(data),
	}, r.secretAccessKey)
	r.previous = signature

	r.out.WriteString(strconv.FormatInt(int64(len(data)), 16))
	r.out.WriteByte(';')
	r.out.WriteString(chunkSignatureHeader)
	r.out.WriteString(signature.String())
	r.out.WriteByte(cr)
	r.out.WriteByte(lf)
	r.out.Write(data)
	r.out.WriteByte(cr)
	r.out.WriteByte(lf)
}

func (r *ChunkedReader) fill() error {
	n, err := io.ReadFull(r.src, r.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}

	if n > 0 {
		r.writeChunk(r.buf[:n])
	}
	if n < len(r.buf) { // source exhausted
		r.writeChunk(nil)
		r.done = true
	}

	return nil
}

func (r *ChunkedReader) Read(p []byte) (n int, err error) {
	for r.out.Len() == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if r.done {
			return 0, io.EOF
		}
		if err := r.fill(); err != nil {
			r.err = err
			return 0, err
		}
	}
	return r.out.Read(p)
}
