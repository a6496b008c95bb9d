// Package sigv4 signs requests for S3-compatible object storage services.
//
// The V4 signer implements AWS Signature Version 4 in its two output modes:
// Sign injects authentication into request headers, Presign produces the
// query parameters that make a URL self-authenticating until an expiry.
// SignChunked covers streaming uploads in the aws-chunked content encoding,
// where every chunk carries a signature chained off the previous one.
//
// The signers are pure: they compute over the supplied credentials and
// request description, perform no I/O, and validate nothing — a request
// signed from bad inputs is simply rejected by the service. Absent optional
// inputs take protocol defaults (an unset payload hash signs as
// UNSIGNED-PAYLOAD, an unset region falls back to the signer's default).
//
// V2 produces the legacy AWS signature for endpoints that predate V4.
// IntegrityReader computes the payload checksums (x-amz-checksum-*,
// Content-MD5, and the hex payload hash) a client sends alongside uploads.
package sigv4
