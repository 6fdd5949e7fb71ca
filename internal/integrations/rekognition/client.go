// Package rekognition wraps the Amazon Rekognition image-classification
// surface consumed by the indexing pipeline.
package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"document-search/internal/domain"
)

// rekognitionAPI is the minimal AWS Rekognition interface required by Client.
// *rekognition.Client from aws-sdk-go-v2 satisfies this interface.
type rekognitionAPI interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
	DetectText(ctx context.Context, in *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
	RecognizeCelebrities(ctx context.Context, in *rekognition.RecognizeCelebritiesInput, optFns ...func(*rekognition.Options)) (*rekognition.RecognizeCelebritiesOutput, error)
}

// Client wraps the AWS Rekognition API.
type Client struct {
	api rekognitionAPI
}

// New creates a Client with the given Rekognition API implementation.
func New(api rekognitionAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("rekognition: api must not be nil")
	}
	return &Client{api: api}, nil
}

// DetectLabels returns up to maxLabels generic labels for the image stored at
// ref, at or above minConfidence percent.
func (c *Client) DetectLabels(ctx context.Context, ref domain.FileReference, maxLabels int32, minConfidence float32) ([]string, error) {
	out, err := c.api.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         s3Image(ref),
		MaxLabels:     aws.Int32(maxLabels),
		MinConfidence: aws.Float32(minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition: detect labels %s/%s: %w", ref.Bucket, ref.Key, err)
	}
	labels := make([]string, 0, len(out.Labels))
	for _, label := range out.Labels {
		labels = append(labels, aws.ToString(label.Name))
	}
	return labels, nil
}

// DetectText returns the text lines and words detected in the image stored at
// ref, filtered to minConfidence percent. The API reports confidence per
// detection, so the filter is applied client-side.
func (c *Client) DetectText(ctx context.Context, ref domain.FileReference, minConfidence float32) ([]string, error) {
	out, err := c.api.DetectText(ctx, &rekognition.DetectTextInput{
		Image: s3Image(ref),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition: detect text %s/%s: %w", ref.Bucket, ref.Key, err)
	}
	texts := make([]string, 0, len(out.TextDetections))
	for _, detection := range out.TextDetections {
		if aws.ToFloat32(detection.Confidence) < minConfidence {
			continue
		}
		texts = append(texts, aws.ToString(detection.DetectedText))
	}
	return texts, nil
}

// RecognizeCelebrities returns the names of celebrities recognized in the
// image stored at ref, filtered to minConfidence percent match confidence.
func (c *Client) RecognizeCelebrities(ctx context.Context, ref domain.FileReference, minConfidence float32) ([]string, error) {
	out, err := c.api.RecognizeCelebrities(ctx, &rekognition.RecognizeCelebritiesInput{
		Image: s3Image(ref),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition: recognize celebrities %s/%s: %w", ref.Bucket, ref.Key, err)
	}
	names := make([]string, 0, len(out.CelebrityFaces))
	for _, celebrity := range out.CelebrityFaces {
		if aws.ToFloat32(celebrity.MatchConfidence) < minConfidence {
			continue
		}
		names = append(names, aws.ToString(celebrity.Name))
	}
	return names, nil
}

func s3Image(ref domain.FileReference) *types.Image {
	return &types.Image{
		S3Object: &types.S3Object{
			Bucket: aws.String(ref.Bucket),
			Name:   aws.String(ref.Key),
		},
	}
}
