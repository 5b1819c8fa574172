package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"

	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// rdsTokenLifetime is how long RDS accepts a generated auth token.
const rdsTokenLifetime = 15 * time.Minute

// AWSIAMTokenProvider signs RDS/Aurora IAM auth tokens.
//
// The default credential chain is resolved on the first successful GetToken
// and reused, so a long wait does not reload shared config on every attempt.
// A failed load is not cached; credentials that appear later (a mounted web
// identity token, say) are picked up by the next attempt.
type AWSIAMTokenProvider struct {
	endpoint string // host:port
	region   string
	username string

	mu    sync.Mutex
	creds aws.CredentialsProvider
}

// NewAWSIAMTokenProvider validates the RDS endpoint (host:port), region and
// IAM-enabled database user.
func NewAWSIAMTokenProvider(endpoint, region, username string) (*AWSIAMTokenProvider, error) {
	switch {
	case endpoint == "":
		return nil, fmt.Errorf("AWS IAM auth requires endpoint (host:port): %w", pgwait.ErrInvalidConfig)
	case region == "":
		return nil, fmt.Errorf("AWS IAM auth requires region (use --aws-region or $AWS_REGION): %w", pgwait.ErrInvalidConfig)
	case username == "":
		return nil, fmt.Errorf("AWS IAM auth requires database username (-U): %w", pgwait.ErrInvalidConfig)
	}

	return &AWSIAMTokenProvider{endpoint: endpoint, region: region, username: username}, nil
}

func (p *AWSIAMTokenProvider) credentials(ctx context.Context) (aws.CredentialsProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.creds != nil {
		return p.creds, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(p.region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for %s: %w", p.region, err)
	}
	p.creds = cfg.Credentials
	return p.creds, nil
}

// GetToken signs a token locally; RDS checks it only when the connection is made.
func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	creds, err := p.credentials(ctx)
	if err != nil {
		return "", time.Time{}, err
	}

	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, creds)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign RDS auth token: %w", err)
	}

	return token, time.Now().Add(rdsTokenLifetime), nil
}

func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("AWSIAMTokenProvider(endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}
