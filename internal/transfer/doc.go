// Package transfer runs multipart transfer commands.
//
// A Command moves one object. It plans parts, runs them with bounded
// concurrency, retries transient failures with backoff, aggregates
// progress, and finalizes or aborts the remote multipart upload.
package transfer
