package s3client

import (
	"github.com/aws/aws-sdk-go-v2/aws"
)

// Config holds the settings used to build a Client.
type Config struct {
	// Region is the AWS region; the credential chain's region when empty
	Region string

	// Endpoint overrides the service endpoint, for S3-compatible stores
	Endpoint string

	// ForcePathStyle addresses buckets as path segments instead of hostnames
	ForcePathStyle bool

	// AccessKeyID and SecretAccessKey set static credentials when both are given
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// AWSConfig replaces the default configuration loading entirely
	AWSConfig *aws.Config
}

// Option is a functional option for configuring a Client.
type Option func(*Config)

// WithRegion sets the AWS region.
// If not specified, uses the region from the default credential chain.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
func WithForcePathStyle(forcePathStyle bool) Option {
	return func(c *Config) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithStaticCredentials uses the given access key instead of the credential chain.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(c *Config) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// WithAWSConfig provides a custom AWS configuration, overriding the default
// configuration loading.
func WithAWSConfig(cfg *aws.Config) Option {
	return func(c *Config) {
		c.AWSConfig = cfg
	}
}
