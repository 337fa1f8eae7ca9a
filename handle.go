package s3transfer

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/extdata"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// Handle observes and controls one running transfer.
type Handle struct {
	cmd *transfer.Command
}

// ID returns the transfer's unique identifier.
func (h *Handle) ID() string {
	return h.cmd.ID()
}

// Direction reports whether the transfer uploads or downloads.
func (h *Handle) Direction() transfertypes.Direction {
	return h.cmd.Direction()
}

// Request returns the request the transfer was started from.
func (h *Handle) Request() *transfertypes.TransferRequest {
	return h.cmd.Request()
}

// State returns the current lifecycle state.
func (h *Handle) State() transfertypes.State {
	return h.cmd.State()
}

// Extensions returns the transfer's extension data. Uploads record the
// multipart upload id under transfertypes.ExtUploadID and the final entity
// tag under transfertypes.ExtETag.
func (h *Handle) Extensions() *extdata.Data {
	return h.cmd.Extensions()
}

// Transferred returns the number of bytes reported so far.
func (h *Handle) Transferred() int64 {
	return h.cmd.Transferred()
}

// Parts returns the state of every planned part.
func (h *Handle) Parts() []transfertypes.PartInfo {
	return h.cmd.Parts()
}

// Cancel stops the transfer. Parts already running stop at their next read
// and parts not yet started are skipped.
func (h *Handle) Cancel() {
	h.cmd.Cancel()
}

// Subscribe returns a channel receiving every progress snapshot from now on,
// and a function ending the subscription. The channel is closed once the
// transfer is terminal and every queued snapshot was delivered.
func (h *Handle) Subscribe() (<-chan transfertypes.ProgressSnapshot, func()) {
	return h.cmd.Subscribe()
}

// Done returns a channel closed when the transfer is terminal.
func (h *Handle) Done() <-chan struct{} {
	return h.cmd.Done()
}

// Result returns the terminal result, or false while the transfer runs.
func (h *Handle) Result() (transfertypes.Result, bool) {
	return h.cmd.Result()
}

// Wait blocks until the transfer is terminal and returns its result. If ctx
// ends first Wait returns a timeout or cancellation error and the transfer
// keeps running.
func (h *Handle) Wait(ctx context.Context) (transfertypes.Result, error) {
	return h.cmd.Wait(ctx)
}
