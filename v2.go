package sigv4

import (
	"crypto/hmac"
	"crypto/sha1"
	"hash"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	queryAWSAccessKeyId = "AWSAccessKeyId"
	queryExpires        = "Expires"
	querySignature      = "Signature"

	xAmzHeaderPrefix = "x-amz-"
)

// Subresources and response overrides that participate in the V2 canonical
// resource. The value says whether the parameter's value gets
// percent-encoded; response overrides are carried verbatim.
var v2IncludedQuery = map[string]bool{
	"acl":                          true,
	"delete":                       true,
	"lifecycle":                    true,
	"location":                     true,
	"logging":                      true,
	"notification":                 true,
	"partNumber":                   true,
	"policy":                       true,
	"requestPayment":               true,
	"uploadId":                     true,
	"uploads":                      true,
	"versionId":                    true,
	"versioning":                   true,
	"versions":                     true,
	"website":                      true,
	"response-cache-control":       false,
	"response-content-disposition": false,
	"response-content-encoding":    false,
	"response-content-language":    false,
	"response-content-type":        false,
	"response-expires":             false,
}

// V2 signs requests with the legacy AWS signature, for endpoints that do not
// speak Signature Version 4. Like V4, a V2 value is immutable after
// construction and safe for concurrent use.
type V2 struct {
	credentials Credentials

	now func() time.Time
}

func NewV2(credentials Credentials) *V2 {
	return &V2{
		credentials: credentials,
		now:         time.Now,
	}
}

// headerValue returns the last value of the case-folded header name.
func headerValue(headers []Pair, name string) (value string, ok bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			value, ok = h.Value, true
		}
	}
	return value, ok
}

func (v2 *V2) calculateSignature(info RequestInfo, dateElement string) signatureV2 {
	b := newHashBuilder(func() hash.Hash {
		return hmac.New(sha1.New, []byte(v2.credentials.SecretAccessKey))
	})

	contentMD5, _ := headerValue(info.Headers, headerContentMD5)
	contentType, _ := headerValue(info.Headers, headerContentType)

	b.WriteString(info.Method)
	b.WriteByte(lf)
	b.WriteString(contentMD5)
	b.WriteByte(lf)
	b.WriteString(contentType)
	b.WriteByte(lf)
	b.WriteString(dateElement)
	b.WriteByte(lf)

	amz := make(map[string][]string)
	for _, h := range info.Headers {
		if k := strings.ToLower(h.Name); strings.HasPrefix(k, xAmzHeaderPrefix) {
			amz[k] = append(amz[k], strings.TrimSpace(h.Value))
		}
	}
	for _, k := range slices.Sorted(maps.Keys(amz)) {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strings.Join(amz[k], ","))
		b.WriteByte(lf)
	}

	// The canonical resource takes the path as it goes out on the wire,
	// already encoded.
	if info.Path == "" {
		b.WriteByte('/')
	} else {
		b.WriteString(info.Path)
	}

	var names []string
	values := make(map[string]string, len(info.Query))
	for _, q := range info.Query {
		if _, ok := v2IncludedQuery[q.Name]; !ok {
			continue
		}
		if _, seen := values[q.Name]; !seen {
			names = append(names, q.Name)
		}
		values[q.Name] = q.Value
	}
	slices.Sort(names)
	for i, name := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(name)
		if v := values[name]; v != "" {
			b.WriteByte('=')
			if v2IncludedQuery[name] {
				b.WriteString(uriEncode(v, true))
			} else {
				b.WriteString(v)
			}
		}
	}

	return b.Sum()
}

// Sign authenticates a request through its headers. It returns the
// authorization pair and the date header it covers; a date header already on
// the request is signed verbatim instead of being synthesized.
func (v2 *V2) Sign(info RequestInfo) []Pair {
	date, ok := headerValue(info.Headers, headerDate)
	if !ok {
		date = v2.now().UTC().Format(http.TimeFormat)
	}

	dateElement := date
	if _, ok := headerValue(info.Headers, headerXAmzDate); ok {
		// x-amz-date supersedes the date line and is signed with the
		// other x-amz-* headers instead.
		dateElement = ""
	}

	signature := v2.calculateSignature(info, dateElement)

	return []Pair{
		{headerAuthorization, "AWS " + v2.credentials.AccessKeyID + ":" + signature.String()},
		{headerDate, date},
	}
}

// Presign makes a URL self-authenticating until an absolute expiry derived
// from the clock. It returns the three query parameters to append to the
// request URL.
func (v2 *V2) Presign(info RequestInfo, expires time.Duration) []Pair {
	rawExpires := strconv.FormatInt(v2.now().Add(expires).Unix(), 10)

	signature := v2.calculateSignature(info, rawExpires)

	return []Pair{
		{queryAWSAccessKeyId, v2.credentials.AccessKeyID},
		{queryExpires, rawExpires},
		{querySignature, signature.String()},
	}
}
