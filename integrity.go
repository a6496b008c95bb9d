package sigv4

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"hash/crc32"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/minio/crc64nvme"
)

type ChecksumAlgorithm int

const (
	AlgorithmCRC32 ChecksumAlgorithm = iota
	AlgorithmCRC32C
	AlgorithmCRC64NVME
	AlgorithmMD5
	AlgorithmSHA1
	AlgorithmSHA256
)

func (a ChecksumAlgorithm) String() string {
	switch a {
	case AlgorithmCRC32:
		return "crc32"
	case AlgorithmCRC32C:
		return "crc32c"
	case AlgorithmCRC64NVME:
		return "crc64nvme"
	case AlgorithmMD5:
		return "md5"
	case AlgorithmSHA1:
		return "sha1"
	case AlgorithmSHA256:
		return "sha256"
	default:
		return strconv.Itoa(int(a))
	}
}

func (a ChecksumAlgorithm) valid() bool {
	return a >= AlgorithmCRC32 && a <= AlgorithmSHA256
}

const checksumHeaderPrefix = "x-amz-checksum-"

// headerName is the header the checksum travels in: content-md5 for MD5,
// x-amz-checksum-<algorithm> for everything else.
func (a ChecksumAlgorithm) headerName() string {
	if a == AlgorithmMD5 {
		return headerContentMD5
	}
	return checksumHeaderPrefix + a.String()
}

// IntegrityReader computes payload checksums while the request body streams
// through it. MD5 and SHA-256 are always computed (they feed the Content-MD5
// header and RequestInfo.PayloadHash); the requested algorithms are computed
// in addition. Results are meaningful once the body has been fully consumed.
type IntegrityReader struct {
	r io.Reader

	requested []ChecksumAlgorithm
	hashes    map[ChecksumAlgorithm]hash.Hash
}

func NewIntegrityReader(r io.Reader, algorithms []ChecksumAlgorithm) *IntegrityReader {
	ir := &IntegrityReader{
		hashes: make(map[ChecksumAlgorithm]hash.Hash),
	}

	var writers []io.Writer

	add := func(a ChecksumAlgorithm, h hash.Hash) {
		ir.hashes[a] = h
		writers = append(writers, h)
	}

	add(AlgorithmMD5, md5.New())
	add(AlgorithmSHA256, sha256.New())

	for _, a := range algorithms {
		if !a.valid() || slices.Contains(ir.requested, a) {
			continue
		}
		ir.requested = append(ir.requested, a)

		if _, ok := ir.hashes[a]; ok {
			continue
		}
		switch a {
		case AlgorithmCRC32:
			add(a, crc32.NewIEEE())
		case AlgorithmCRC32C:
			add(a, crc32.New(crc32.MakeTable(crc32.Castagnoli)))
		case AlgorithmCRC64NVME:
			add(a, crc64nvme.New())
		case AlgorithmSHA1:
			add(a, sha1.New())
		}
	}

	ir.r = io.TeeReader(r, io.MultiWriter(writers...))

	return ir
}

func (r *IntegrityReader) Read(p []byte) (n int, err error) {
	return r.r.Read(p)
}

// Checksums returns the checksum header pairs for the requested algorithms,
// base64-encoded and sorted by header name.
func (r *IntegrityReader) Checksums() []Pair {
	pairs := make([]Pair, 0, len(r.requested))
	for _, a := range r.requested {
		pairs = append(pairs, Pair{a.headerName(), base64.StdEncoding.EncodeToString(r.hashes[a].Sum(nil))})
	}
	slices.SortFunc(pairs, func(a, b Pair) int {
		return strings.Compare(a.Name, b.Name)
	})
	return pairs
}

// HashedPayload is the hex SHA-256 of everything read so far, in the form
// RequestInfo.PayloadHash takes.
func (r *IntegrityReader) HashedPayload() string {
	return hex.EncodeToString(r.hashes[AlgorithmSHA256].Sum(nil))
}

// ContentMD5 is the base64 MD5 of everything read so far.
func (r *IntegrityReader) ContentMD5() string {
	return base64.StdEncoding.EncodeToString(r.hashes[AlgorithmMD5].Sum(nil))
}
