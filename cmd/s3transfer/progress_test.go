package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

type fakeTransfer struct {
	events []transfertypes.ProgressSnapshot
	result transfertypes.Result
}

func (f *fakeTransfer) Subscribe() (<-chan transfertypes.ProgressSnapshot, func()) {
	ch := make(chan transfertypes.ProgressSnapshot, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch, func() {}
}

func (f *fakeTransfer) Wait(context.Context) (transfertypes.Result, error) {
	return f.result, nil
}

func TestApp_Follow(t *testing.T) {
	var out, errOut bytes.Buffer
	a := &app{out: &out, errOut: &errOut}

	ft := &fakeTransfer{
		events: []transfertypes.ProgressSnapshot{
			{Increment: 10, Cumulative: 10, Total: 20},
			{Increment: 10, Cumulative: 20, Total: 20},
		},
		result: transfertypes.Result{State: transfertypes.StateCompleted, Bytes: 20, Parts: 2},
	}

	for _, show := range []bool{true, false} {
		r, err := a.follow(context.Background(), ft, transfertypes.UnknownSize, show)
		require.NoError(t, err)
		assert.Equal(t, int64(20), r.Bytes)
	}
}

func TestApp_Summarize(t *testing.T) {
	var out bytes.Buffer
	a := &app{out: &out}

	a.summarize("uploaded", "s3://b/k", transfertypes.Result{
		State:    transfertypes.StateCompleted,
		Bytes:    3_000_000,
		Parts:    3,
		Duration: 2 * time.Second,
	})
	assert.Equal(t, "uploaded s3://b/k: 3.0 MB in 3 parts, 2s, 1.5 MB/s\n", out.String())

	out.Reset()
	a.summarize("uploaded", "s3://b/k", transfertypes.Result{
		State:    transfertypes.StateCanceled,
		Bytes:    1000,
		Duration: 1500 * time.Millisecond,
	})
	assert.Equal(t, "s3://b/k canceled: 1.0 kB after 1.5s\n", out.String())
}
