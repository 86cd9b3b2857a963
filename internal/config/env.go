package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-github/v59/github"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/oauth2"
)

// Env carries settings that come from the environment rather than the config
// file: credentials and deployment-specific overrides.
type Env struct {
	GitHubToken       string `envconfig:"GITHUB_TOKEN"`
	OutputDir         string `envconfig:"PLUGIN_REPO_OUTPUT_DIR"`
	PublishBucket     string `envconfig:"PLUGIN_REPO_BUCKET"`
	PublishPrefix     string `envconfig:"PLUGIN_REPO_BUCKET_PREFIX"`
	PublishEndpoint   string `envconfig:"PLUGIN_REPO_S3_ENDPOINT"`
	PublishAccessKey  string `envconfig:"PLUGIN_REPO_S3_ACCESS_KEY_ID"`
	PublishSecretKey  string `envconfig:"PLUGIN_REPO_S3_SECRET_ACCESS_KEY"`
	PublishRegion     string `envconfig:"PLUGIN_REPO_S3_REGION" default:"auto"`
}

// NewEnv reads the environment settings.
func NewEnv() (*Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateGitHubClient returns a GitHub API client, authenticated when a token
// is configured. Unauthenticated clients work for public repositories but are
// subject to much lower rate limits.
func (e *Env) CreateGitHubClient() *github.Client {
	if e.GitHubToken == "" {
		return github.NewClient(nil)
	}
	oauthClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: e.GitHubToken}))
	return github.NewClient(oauthClient)
}

func (e *Env) s3EndpointResolver(_, _ string, _ ...interface{}) (aws.Endpoint, error) {
	return aws.Endpoint{URL: e.PublishEndpoint}, nil
}

// CreateS3Client returns a client for the configured S3-compatible bucket
// endpoint.
func (e *Env) CreateS3Client(ctx context.Context) (*s3.Client, error) {
	if e.PublishBucket == "" {
		return nil, fmt.Errorf("no publish bucket configured (PLUGIN_REPO_BUCKET)")
	}
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(e.PublishRegion),
	}
	if e.PublishAccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(e.PublishAccessKey, e.PublishSecretKey, ""),
		))
	}
	if e.PublishEndpoint != "" {
		opts = append(opts, awsConfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(e.s3EndpointResolver)))
	}
	s3Cfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(s3Cfg, func(o *s3.Options) {
		o.UsePathStyle = e.PublishEndpoint != ""
	}), nil
}
