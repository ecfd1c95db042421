package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockClient implements Provider for Amazon Bedrock
type BedrockClient struct {
	Region  string
	Model   string
	Timeout time.Duration

	svc *bedrockruntime.Client
}

// NewBedrock initializes a Bedrock client using default AWS config chain
func NewBedrock(region, model string, timeout time.Duration) (*BedrockClient, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("bedrock model is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cfg aws.Config
	var err error
	if strings.TrimSpace(region) != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	} else {
		// Allow region to be resolved from AWS profile/env
		cfg, err = awsconfig.LoadDefaultConfig(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region == "" && strings.TrimSpace(region) == "" {
		return nil, fmt.Errorf("AWS region not resolved. Set llm region, AWS_REGION or define region in the selected AWS profile")
	}
	client := bedrockruntime.NewFromConfig(cfg)
	return &BedrockClient{Region: region, Model: model, Timeout: timeout, svc: client}, nil
}

// Name returns provider name
func (b *BedrockClient) Name() string { return "bedrock" }

// resolveModelID validates the configured model and normalizes it for the
// InvokeModel API. Inference profiles and ARNs are passed through untouched;
// bare model IDs get the revision suffix some integrations require.
func resolveModelID(model string) (string, error) {
	lower := strings.ToLower(model)
	if !strings.Contains(lower, "anthropic.") {
		return "", fmt.Errorf("unsupported Bedrock model family for %q", model)
	}
	if !strings.HasPrefix(lower, "arn:") && !strings.Contains(lower, "inference-profile/") && !strings.Contains(model, ":") {
		return model + ":0", nil
	}
	return model, nil
}

// Generate sends a prompt to Bedrock and returns the generated text
func (b *BedrockClient) Generate(prompt string) (string, error) {
	modelID, err := resolveModelID(b.Model)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        256,
		"temperature":       0.0,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": prompt},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.Timeout)
	defer cancel()
	out, err := b.svc.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke error: %w", err)
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode bedrock response: %w", err)
	}
	for _, c := range resp.Content {
		if c.Type == "text" && strings.TrimSpace(c.Text) != "" {
			return strings.TrimSpace(c.Text), nil
		}
	}
	return "", fmt.Errorf("empty response from bedrock model")
}
