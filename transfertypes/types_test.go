package transfertypes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
)

func TestState_Terminal(t *testing.T) {
	assert.False(t, StateCreated.Terminal())
	assert.False(t, StatePlanning.Terminal())
	assert.False(t, StateRunning.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateCanceled.Terminal())
}

func TestPartDescriptor_Range(t *testing.T) {
	tests := []struct {
		name string
		part PartDescriptor
		want string
	}{
		{"first part", PartDescriptor{Offset: 0, Length: 100}, "bytes=0-99"},
		{"middle part", PartDescriptor{Offset: 5242880, Length: 5242880}, "bytes=5242880-10485759"},
		{"empty part", PartDescriptor{Offset: 0, Length: 0}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.part.Range())
		})
	}
}

func TestProgressSnapshot_HasTotal(t *testing.T) {
	assert.False(t, ProgressSnapshot{Total: UnknownSize}.HasTotal())
	assert.True(t, ProgressSnapshot{Total: 0}.HasTotal())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.MaxAttempts = 0 }, wantErr: true},
		{name: "empty backoff table", mutate: func(c *Config) { c.BackoffTable = nil }, wantErr: true},
		{name: "negative backoff entry", mutate: func(c *Config) { c.BackoffTable = []time.Duration{-1} }, wantErr: true},
		{name: "max part below min part", mutate: func(c *Config) { c.MaxPartSize = c.MinPartSize - 1 }, wantErr: true},
		{name: "zero max parts", mutate: func(c *Config) { c.MaxParts = 0 }, wantErr: true},
		{name: "negative part timeout", mutate: func(c *Config) { c.PartTimeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidInput)
				assert.ErrorIs(t, err, errors.ErrSender)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDefaultConfig_CopiesTable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackoffTable[0] = time.Hour

	assert.Equal(t, 500*time.Millisecond, DefaultBackoffTable[0])
}
