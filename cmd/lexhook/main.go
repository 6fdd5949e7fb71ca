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
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"document-search/handler"
	"document-search/internal/dialog"
	"document-search/internal/elastic"
	"document-search/internal/integrations/paramstore"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	maxDocs := envInt("SEARCH_MAX_DOCS", 3)
	fragmentCount := envInt("SEARCH_FRAGMENT_COUNT", 3)
	fragmentLength := envInt("SEARCH_FRAGMENT_LENGTH", 50)
	turnTimeout := time.Duration(envInt("TURN_TIMEOUT_SECONDS", 25)) * time.Second

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

	// ---- Handler ----
	engine, err := dialog.NewEngine(
		dialog.FileSearchSlots(),
		elastic.NewTextfileModel(esClient),
		elastic.NewImagefileModel(esClient),
		dialog.Config{MaxDocs: maxDocs, FragmentCount: fragmentCount, FragmentLength: fragmentLength},
	)
	if err != nil {
		slog.Error("failed to create dialog engine", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewTurnHandler(engine, turnTimeout)
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
