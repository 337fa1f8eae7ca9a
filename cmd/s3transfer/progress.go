package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

// transfer is the part of a Handle the CLI follows.
type transfer interface {
	Subscribe() (<-chan transfertypes.ProgressSnapshot, func())
	Wait(ctx context.Context) (transfertypes.Result, error)
}

// follow renders progress until the transfer is terminal and returns its result.
func (a *app) follow(ctx context.Context, t transfer, total int64, showBar bool) (transfertypes.Result, error) {
	events, stop := t.Subscribe()
	defer stop()

	var bar *pb.ProgressBar
	if showBar {
		bar = pb.New64(max(total, 0))
		bar.Set(pb.Bytes, true)
		bar.SetWriter(a.errOut)
		bar.Start()
	}

	for s := range events {
		if bar == nil {
			continue
		}
		if s.HasTotal() {
			bar.SetTotal(s.Total)
		}
		bar.SetCurrent(s.Cumulative)
	}
	if bar != nil {
		bar.Finish()
	}

	return t.Wait(context.WithoutCancel(ctx))
}

// summarize prints a one-line outcome of a transfer.
func (a *app) summarize(verb, object string, r transfertypes.Result) {
	if r.State != transfertypes.StateCompleted {
		fmt.Fprintf(a.out, "%s %s: %s after %s\n", object, r.State, humanize.Bytes(uint64(r.Bytes)), r.Duration.Round(time.Millisecond))
		return
	}

	rate := ""
	if secs := r.Duration.Seconds(); secs > 0 {
		rate = fmt.Sprintf(", %s/s", humanize.Bytes(uint64(float64(r.Bytes)/secs)))
	}
	fmt.Fprintf(a.out, "%s %s: %s in %d parts, %s%s\n",
		verb, object,
		humanize.Bytes(uint64(r.Bytes)),
		r.Parts,
		r.Duration.Round(time.Millisecond),
		rate)
}
