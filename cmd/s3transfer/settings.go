package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/minioclient"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/s3client"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/transfertypes"
)

var envKeyReplacer = strings.NewReplacer("-", "_")

// settings is the resolved CLI configuration.
type settings struct {
	Backend        string
	Endpoint       string
	Region         string
	PathStyle      bool
	AccessKey      string
	SecretKey      string
	Concurrency    int
	PartSize       int64
	MaxAttempts    int
	PartTimeout    time.Duration
	SkewCorrection bool
	Progress       bool
}

func loadSettings(v *viper.Viper) (settings, error) {
	s := settings{
		Backend:        strings.ToLower(v.GetString("backend")),
		Endpoint:       v.GetString("endpoint"),
		Region:         v.GetString("region"),
		PathStyle:      v.GetBool("path-style"),
		AccessKey:      v.GetString("access-key"),
		SecretKey:      v.GetString("secret-key"),
		Concurrency:    v.GetInt("concurrency"),
		MaxAttempts:    v.GetInt("max-attempts"),
		PartTimeout:    v.GetDuration("part-timeout"),
		SkewCorrection: v.GetBool("skew-correction"),
		Progress:       v.GetBool("progress"),
	}
	if s.Backend == "" {
		s.Backend = "s3"
	}

	if raw := v.GetString("part-size"); raw != "" {
		size, err := humanize.ParseBytes(raw)
		if err != nil {
			return settings{}, fmt.Errorf("invalid part size %q: %w", raw, err)
		}
		s.PartSize = int64(size)
	}

	switch s.Backend {
	case "s3":
	case "minio":
		if s.Endpoint == "" {
			return settings{}, fmt.Errorf("the minio backend requires --endpoint")
		}
	default:
		return settings{}, fmt.Errorf("unknown backend %q", s.Backend)
	}
	return s, nil
}

// options converts the settings into Manager options.
func (s settings) options(logger *slog.Logger) []transfertypes.Option {
	opts := []transfertypes.Option{
		s3transfer.WithLogger(logger),
		s3transfer.WithClockSkewCorrection(s.SkewCorrection),
	}
	if s.Concurrency > 0 {
		opts = append(opts, s3transfer.WithConcurrency(s.Concurrency))
	}
	if s.PartSize > 0 {
		opts = append(opts, s3transfer.WithMinPartSize(s.PartSize))
	}
	if s.MaxAttempts > 0 {
		opts = append(opts, s3transfer.WithMaxAttempts(s.MaxAttempts))
	}
	if s.PartTimeout > 0 {
		opts = append(opts, s3transfer.WithPartTimeout(s.PartTimeout))
	}
	return opts
}

func (s settings) client(ctx context.Context) (transfertypes.PartTransferClient, error) {
	if s.Backend == "minio" {
		var opts []minioclient.Option
		if s.Region != "" {
			opts = append(opts, minioclient.WithRegion(s.Region))
		}
		if s.AccessKey != "" {
			opts = append(opts, minioclient.WithStaticCredentials(s.AccessKey, s.SecretKey, ""))
		}
		return minioclient.New(s.Endpoint, opts...)
	}

	opts := []s3client.Option{s3client.WithForcePathStyle(s.PathStyle)}
	if s.Region != "" {
		opts = append(opts, s3client.WithRegion(s.Region))
	}
	if s.Endpoint != "" {
		opts = append(opts, s3client.WithEndpoint(s.Endpoint))
	}
	if s.AccessKey != "" {
		opts = append(opts, s3client.WithStaticCredentials(s.AccessKey, s.SecretKey, ""))
	}
	return s3client.New(ctx, opts...)
}

// newManager builds a Manager from the app's configuration.
func (a *app) newManager(ctx context.Context) (*s3transfer.Manager, settings, error) {
	s, err := loadSettings(a.v)
	if err != nil {
		return nil, settings{}, err
	}
	client, err := s.client(ctx)
	if err != nil {
		return nil, settings{}, err
	}
	m, err := s3transfer.New(client, s.options(a.logger)...)
	if err != nil {
		return nil, settings{}, err
	}
	return m, s, nil
}

// parseObjectURL splits "s3://bucket/key" or "bucket/key" into its parts.
func parseObjectURL(raw string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(raw, "s3://")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid object %q: expected s3://bucket/key", raw)
	}
	return bucket, key, nil
}
