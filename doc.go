// Package s3transfer moves large objects to and from S3-compatible storage
// as concurrently transferred parts.
//
// A Manager accepts transfer requests, validates them, splits the object into
// parts and runs each transfer as a command. Parts are retried on transient
// failures with a table-driven backoff, signing clocks are corrected when the
// service rejects a request as skewed, and progress is reported exactly once
// per byte even across retries.
//
// The network side is a transfertypes.PartTransferClient. The s3client
// package provides one over the AWS SDK and the minioclient package one over
// minio-go.
//
// Example usage:
//
//	client, err := s3client.New(ctx)
//	if err != nil {
//	    return err
//	}
//
//	m, err := s3transfer.New(client,
//	    s3transfer.WithConcurrency(8),
//	    s3transfer.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//
//	h, err := m.Upload(ctx, &transfertypes.TransferRequest{
//	    Bucket:   "my-bucket",
//	    Key:      "backups/db.tar",
//	    FilePath: "/var/backups/db.tar",
//	})
//	if err != nil {
//	    return err
//	}
//
//	result, err := h.Wait(ctx)
package s3transfer
