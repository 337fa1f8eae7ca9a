// Package s3client implements transfertypes.PartTransferClient over the AWS
// SDK for Go v2.
//
// Requests are signed by a SigV4 signer that adds a configurable offset to
// the local clock, so a transfer Manager can correct for clock skew after the
// service rejects a request. The SDK's own retries are disabled; the Manager
// retries each part itself.
package s3client
