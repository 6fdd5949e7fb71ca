// Package comprehend wraps the Amazon Comprehend text-classification surface
// consumed by the indexing pipeline.
package comprehend

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"

	"document-search/internal/domain"
)

// comprehendAPI is the minimal AWS Comprehend interface required by Client.
// *comprehend.Client from aws-sdk-go-v2 satisfies this interface.
type comprehendAPI interface {
	DetectEntities(ctx context.Context, in *comprehend.DetectEntitiesInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectEntitiesOutput, error)
	BatchDetectEntities(ctx context.Context, in *comprehend.BatchDetectEntitiesInput, optFns ...func(*comprehend.Options)) (*comprehend.BatchDetectEntitiesOutput, error)
	DetectKeyPhrases(ctx context.Context, in *comprehend.DetectKeyPhrasesInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectKeyPhrasesOutput, error)
	BatchDetectKeyPhrases(ctx context.Context, in *comprehend.BatchDetectKeyPhrasesInput, optFns ...func(*comprehend.Options)) (*comprehend.BatchDetectKeyPhrasesOutput, error)
	DetectSentiment(ctx context.Context, in *comprehend.DetectSentimentInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectSentimentOutput, error)
}

const languageCode = types.LanguageCodeEn

// Client wraps the AWS Comprehend API.
type Client struct {
	api comprehendAPI
}

// New creates a Client with the given Comprehend API implementation.
func New(api comprehendAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("comprehend: api must not be nil")
	}
	return &Client{api: api}, nil
}

// DetectEntities returns the named entities found in one text.
func (c *Client) DetectEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	out, err := c.api.DetectEntities(ctx, &comprehend.DetectEntitiesInput{
		Text:         aws.String(text),
		LanguageCode: languageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend: detect entities: %w", err)
	}
	return mapEntities(out.Entities), nil
}

// DetectEntitiesBatch returns one entity list per input text, index-aligned.
func (c *Client) DetectEntitiesBatch(ctx context.Context, texts []string) ([][]domain.Entity, error) {
	if len(texts) == 0 {
		return [][]domain.Entity{}, nil
	}
	out, err := c.api.BatchDetectEntities(ctx, &comprehend.BatchDetectEntitiesInput{
		TextList:     texts,
		LanguageCode: languageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend: batch detect entities: %w", err)
	}
	if len(out.ErrorList) > 0 {
		return nil, batchError("entities", out.ErrorList)
	}
	results := make([][]domain.Entity, len(texts))
	for i := range results {
		results[i] = []domain.Entity{}
	}
	for _, item := range out.ResultList {
		if item.Index == nil {
			continue
		}
		results[*item.Index] = mapEntities(item.Entities)
	}
	return results, nil
}

// DetectKeyPhrases returns the key phrases found in one text.
func (c *Client) DetectKeyPhrases(ctx context.Context, text string) ([]string, error) {
	out, err := c.api.DetectKeyPhrases(ctx, &comprehend.DetectKeyPhrasesInput{
		Text:         aws.String(text),
		LanguageCode: languageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend: detect key phrases: %w", err)
	}
	return mapKeyPhrases(out.KeyPhrases), nil
}

// DetectKeyPhrasesBatch returns one key-phrase list per input text, index-aligned.
func (c *Client) DetectKeyPhrasesBatch(ctx context.Context, texts []string) ([][]string, error) {
	if len(texts) == 0 {
		return [][]string{}, nil
	}
	out, err := c.api.BatchDetectKeyPhrases(ctx, &comprehend.BatchDetectKeyPhrasesInput{
		TextList:     texts,
		LanguageCode: languageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend: batch detect key phrases: %w", err)
	}
	if len(out.ErrorList) > 0 {
		return nil, batchError("key phrases", out.ErrorList)
	}
	results := make([][]string, len(texts))
	for i := range results {
		results[i] = []string{}
	}
	for _, item := range out.ResultList {
		if item.Index == nil {
			continue
		}
		results[*item.Index] = mapKeyPhrases(item.KeyPhrases)
	}
	return results, nil
}

// DetectSentiment returns the dominant sentiment of one text:
// POSITIVE, NEGATIVE, NEUTRAL or MIXED.
func (c *Client) DetectSentiment(ctx context.Context, text string) (string, error) {
	out, err := c.api.DetectSentiment(ctx, &comprehend.DetectSentimentInput{
		Text:         aws.String(text),
		LanguageCode: languageCode,
	})
	if err != nil {
		return "", fmt.Errorf("comprehend: detect sentiment: %w", err)
	}
	return string(out.Sentiment), nil
}

func mapEntities(entities []types.Entity) []domain.Entity {
	out := make([]domain.Entity, 0, len(entities))
	for _, e := range entities {
		out = append(out, domain.Entity{
			Type:    string(e.Type),
			Content: aws.ToString(e.Text),
		})
	}
	return out
}

func mapKeyPhrases(phrases []types.KeyPhrase) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, aws.ToString(p.Text))
	}
	return out
}

func batchError(kind string, errs []types.BatchItemError) error {
	first := errs[0]
	return fmt.Errorf("comprehend: batch detect %s: %d item(s) failed, first: %s %s",
		kind, len(errs), aws.ToString(first.ErrorCode), aws.ToString(first.ErrorMessage))
}
