package sigv4

import (
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/zeebo/assert"
)

func TestChecksumAlgorithm(t *testing.T) {
	assert.Equal(t, "crc32", AlgorithmCRC32.String())
	assert.Equal(t, "crc64nvme", AlgorithmCRC64NVME.String())

	assert.Equal(t, "content-md5", AlgorithmMD5.headerName())
	assert.Equal(t, "x-amz-checksum-sha256", AlgorithmSHA256.headerName())
	assert.Equal(t, "x-amz-checksum-crc32c", AlgorithmCRC32C.headerName())

	assert.True(t, AlgorithmCRC32.valid())
	assert.True(t, AlgorithmSHA256.valid())
	assert.False(t, ChecksumAlgorithm(42).valid())
	assert.False(t, ChecksumAlgorithm(-1).valid())
}

func TestIntegrityReader(t *testing.T) {
	// The standard check input for CRC algorithms, with digests to match.
	const check = "123456789"

	base64Of := func(hexDigest string) string {
		return base64.StdEncoding.EncodeToString(mustHexDecodeString(hexDigest))
	}

	t.Run("all algorithms", func(t *testing.T) {
		ir := NewIntegrityReader(strings.NewReader(check), []ChecksumAlgorithm{
			AlgorithmCRC32,
			AlgorithmCRC32C,
			AlgorithmCRC64NVME,
			AlgorithmMD5,
			AlgorithmSHA1,
			AlgorithmSHA256,
			AlgorithmCRC32,        // duplicates collapse
			ChecksumAlgorithm(42), // unknown values are dropped
		})

		body, err := io.ReadAll(ir)
		assert.NoError(t, err)
		assert.Equal(t, check, string(body))

		assert.DeepEqual(t, []Pair{
			{"content-md5", base64Of("25f9e794323b453885f5181f1b624d0b")},
			{"x-amz-checksum-crc32", base64Of("cbf43926")},
			{"x-amz-checksum-crc32c", base64Of("e3069283")},
			{"x-amz-checksum-crc64nvme", base64Of("ae8b14860a799888")},
			{"x-amz-checksum-sha1", base64Of("f7c3bc1d808e04732adf679965ccc34ca7ae3441")},
			{"x-amz-checksum-sha256", base64Of("15e2b0d3c33891ebb0f1ef609ec419420c20e320ce94c65fbc8c3312448eb225")},
		}, ir.Checksums())

		assert.Equal(t, "15e2b0d3c33891ebb0f1ef609ec419420c20e320ce94c65fbc8c3312448eb225", ir.HashedPayload())
		assert.Equal(t, base64Of("25f9e794323b453885f5181f1b624d0b"), ir.ContentMD5())
	})
	t.Run("defaults", func(t *testing.T) {
		ir := NewIntegrityReader(strings.NewReader(""), nil)

		_, err := io.ReadAll(ir)
		assert.NoError(t, err)

		// MD5 and SHA-256 always run, but only requested algorithms are
		// reported as checksum headers.
		assert.Equal(t, 0, len(ir.Checksums()))
		assert.Equal(t, emptyPayloadSHA256, ir.HashedPayload())
		assert.Equal(t, "1B2M2Y8AsgTpgAmY7PhCfg==", ir.ContentMD5())
	})
	t.Run("streams through", func(t *testing.T) {
		ir := NewIntegrityReader(strings.NewReader(check), []ChecksumAlgorithm{AlgorithmCRC32})

		buf := make([]byte, 4)
		n, err := io.ReadFull(ir, buf)
		assert.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, "1234", string(buf))

		rest, err := io.ReadAll(ir)
		assert.NoError(t, err)
		assert.Equal(t, "56789", string(rest))

		assert.DeepEqual(t, []Pair{
			{"x-amz-checksum-crc32", base64Of("cbf43926")},
		}, ir.Checksums())
	})
}
