package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	rdsutils "github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// IAMConfig describes a managed PostgreSQL database reached with an IAM
// authentication token instead of a password.
type IAMConfig struct {
	Profile  string // shared config profile, mostly for development
	Region   string
	Endpoint string // host name without port
	Port     int
	User     string
	DBName   string
	SSLMode  string // defaults to "require"
}

// Validate checks that every required field is set.
func (c IAMConfig) Validate() error {
	switch {
	case c.Region == "":
		return fmt.Errorf("iam config: region is required")
	case c.Endpoint == "":
		return fmt.Errorf("iam config: endpoint is required")
	case c.User == "":
		return fmt.Errorf("iam config: user is required")
	case c.DBName == "":
		return fmt.Errorf("iam config: database name is required")
	}
	return nil
}

// LoadAWSConfig loads credentials and region for the token signer.
func (c IAMConfig) LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(c.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return cfg, nil
}

// DSN builds a connection string with a freshly signed token. Tokens are
// short-lived, so build a new DSN for every new pool.
func (c IAMConfig) DSN(ctx context.Context) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	awsCfg, err := c.LoadAWSConfig(ctx)
	if err != nil {
		return "", err
	}

	// Signed locally, no API call
	token, err := rdsutils.BuildAuthToken(ctx, c.address(), c.Region, c.User, awsCfg.Credentials)
	if err != nil {
		return "", fmt.Errorf("failed to create authentication token: %w", err)
	}
	return c.dsnWithPassword(token), nil
}

func (c IAMConfig) address() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("%s:%d", c.Endpoint, port)
}

func (c IAMConfig) dsnWithPassword(password string) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, password),
		Host:     c.address(),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}
