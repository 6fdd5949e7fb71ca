package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscomprehend "github.com/aws/aws-sdk-go-v2/service/comprehend"
	awsrekognition "github.com/aws/aws-sdk-go-v2/service/rekognition"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"document-search/handler"
	"document-search/internal/elastic"
	"document-search/internal/ingest"
	"document-search/internal/integrations/comprehend"
	"document-search/internal/integrations/objectstore"
	"document-search/internal/integrations/paramstore"
	"document-search/internal/integrations/rekognition"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	region := mustEnv("AWS_REGION")
	flushThreshold := envInt("ES_BATCH_SIZE_BYTES", 5_000_000)
	maxLabels := envInt("REKOGNITION_MAX_LABELS", 20)
	minConfidence := envInt("REKOGNITION_MIN_CONFIDENCE", 90)
	runTimeout := time.Duration(envInt("RUN_TIMEOUT_SECONDS", 840)) * time.Second

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	endpoint, err := resolveEndpoint(ctx, cfg)
	if err != nil {
		slog.Error("failed to resolve search endpoint", "err", err)
		os.Exit(1)
	}
	esClient, err := elastic.NewClient(endpoint)
	if err != nil {
		slog.Error("failed to create search client", "err", err)
		os.Exit(1)
	}
	objects, err := objectstore.New(awss3.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create object store client", "err", err)
		os.Exit(1)
	}
	textClassifier, err := comprehend.New(awscomprehend.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create comprehend client", "err", err)
		os.Exit(1)
	}
	imageClassifier, err := rekognition.New(awsrekognition.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create rekognition client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	service, err := ingest.NewService(
		objects,
		textClassifier,
		imageClassifier,
		elastic.NewTextfileModel(esClient),
		elastic.NewImagefileModel(esClient),
		ingest.Config{
			Region:              region,
			FlushThresholdBytes: int64(flushThreshold),
			MaxLabels:           int32(maxLabels),
			MinConfidence:       float32(minConfidence),
		},
	)
	if err != nil {
		slog.Error("failed to create ingest service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewIndexHandler(service, runTimeout)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

// resolveEndpoint prefers ES_ENDPOINT and otherwise reads the parameter
// {PARAM_PREFIX}/es_endpoint from SSM Parameter Store.
func resolveEndpoint(ctx context.Context, cfg aws.Config) (string, error) {
	if endpoint := os.Getenv("ES_ENDPOINT"); endpoint != "" {
		return endpoint, nil
	}
	prefix := strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/")
	if prefix == "" {
		return "", errors.New("either ES_ENDPOINT or PARAM_PREFIX must be set")
	}
	params, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		return "", err
	}
	return params.GetParameter(ctx, prefix+"/es_endpoint")
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
