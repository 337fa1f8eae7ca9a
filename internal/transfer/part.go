package transfer

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// partState is owned by the goroutine running the part; the mutex only
// guards reads from Command.Parts.
type partState struct {
	planner.Part

	mu       sync.Mutex
	attempts int
	status   transfertypes.PartStatus
	etag     string
}

// begin starts a new attempt and returns its 1-based number.
func (p *partState) begin() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	p.status = transfertypes.PartPending
	return p.attempts
}

func (p *partState) succeed(etag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == transfertypes.PartSuccess {
		return
	}
	p.status = transfertypes.PartSuccess
	p.etag = etag
}

func (p *partState) fail(status transfertypes.PartStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == transfertypes.PartSuccess {
		return
	}
	p.status = status
}

func (p *partState) completed() (transfertypes.CompletedPart, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return transfertypes.CompletedPart{Number: p.Number, ETag: p.etag}, p.status == transfertypes.PartSuccess
}

func (p *partState) info() transfertypes.PartInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return transfertypes.PartInfo{
		Number:   p.Number,
		Offset:   p.Offset,
		Length:   p.Length,
		Attempts: p.attempts,
		Status:   p.status,
		ETag:     p.etag,
	}
}
