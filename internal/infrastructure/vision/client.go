package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Config holds configuration for the screenshot analysis client
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

const (
	apiVersion       = "2023-06-01"
	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultMaxTokens = 4096
	defaultTimeout   = 60 * time.Second

	// parseFailure is reported when the model answers with something other than JSON
	parseFailure = "Failed to parse structured data"
)

var codeFence = regexp.MustCompile("```(?:json)?\\n?")

const extractionPrompt = `You are analyzing a screenshot of product attributes from an e-commerce admin panel or vendor catalog.

TASK: Extract ALL visible product information from this image and return it as structured JSON.

REQUIRED FIELDS TO EXTRACT (if visible):
- Product Name / Title
- Brand / Vendor Name
- Category
- Price (and currency)
- MOQ (Minimum Order Quantity)
- Material / Composition
- Dimensions (Length, Width, Height)
- Weight
- Color / Colors available
- SKU / Product Code
- Lead Time / Delivery Time
- Branding Methods (printing, engraving, etc.)
- Printable Area / Branding Area
- Packaging details
- Certifications (BIS, ISO, etc.)
- Product Description
- Any other specifications visible

IMPORTANT:
1. Extract EXACTLY what you see - don't make assumptions
2. If a field is not visible, set it to null
3. Preserve numbers, units, and formatting as shown
4. Return ONLY valid JSON, no markdown or extra text

RESPONSE FORMAT:
{
  "productName": "...",
  "brand": "...",
  "category": "...",
  "price": {"value": "...", "currency": "..."},
  "moq": "...",
  "material": "...",
  "dimensions": {...},
  "weight": "...",
  "color": "...",
  "sku": "...",
  "leadTime": "...",
  "brandingMethods": [...],
  "printableArea": "...",
  "packaging": "...",
  "certifications": [...],
  "description": "...",
  "specifications": {...},
  "extractedText": "..."
}`

// Client extracts product attributes from screenshots with a vision model
type Client struct {
	httpClient  *http.Client
	cfg         Config
	rateLimiter *rate.Limiter
	debug       bool
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

// NewClient creates a new vision client
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg:         cfg,
		rateLimiter: rate.NewLimiter(rate.Limit(1), 2),
	}
}

// SetDebug enables or disables verbose logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// ExtractFromImage sends the screenshot to the model and returns its
// attribute guess. A reply that is not valid JSON still yields a guess
// carrying the raw text under "extractedText" and an "error" field.
func (c *Client) ExtractFromImage(ctx context.Context, data []byte, mimeType string) (domain.AttributeGuess, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key not configured", domain.ErrVisionFailure)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrVisionFailure)
	}

	log.Printf("[VISION] Analyzing %d byte %s screenshot", len(data), mimeType)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	text, err := c.send(ctx, messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{Type: "image", Source: &imageSource{
					Type:      "base64",
					MediaType: mimeType,
					Data:      base64.StdEncoding.EncodeToString(data),
				}},
				{Type: "text", Text: extractionPrompt},
			},
		}},
	})
	if err != nil {
		return nil, err
	}

	guess := ParseGuess(text)
	guess["_metadata"] = map[string]interface{}{
		"source":      "screenshot-ocr",
		"analyzer":    "vision-api",
		"model":       c.cfg.Model,
		"extractedAt": time.Now().UTC().Format(time.RFC3339),
		"imageSize":   len(data),
	}

	log.Printf("[VISION] Extracted %d fields", len(guess))
	return guess, nil
}

func (c *Client) send(ctx context.Context, payload messagesRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrVisionFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", domain.ErrVisionFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		if c.debug {
			log.Printf("[VISION] API error - Status: %d, Body: %s", resp.StatusCode, string(respBody))
		}
		return "", fmt.Errorf("%w: status %d", domain.ErrVisionFailure, resp.StatusCode)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", domain.ErrVisionFailure, err)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}

// ParseGuess decodes the model's reply, tolerating markdown code fences
func ParseGuess(text string) domain.AttributeGuess {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(text, ""))

	var guess domain.AttributeGuess
	if err := json.Unmarshal([]byte(cleaned), &guess); err != nil || guess == nil {
		log.Printf("[VISION] Failed to parse JSON reply: %v", err)
		return domain.AttributeGuess{
			"productName":    nil,
			"brand":          nil,
			"category":       nil,
			"extractedText":  text,
			"error":          parseFailure,
			"specifications": map[string]interface{}{},
		}
	}
	return guess
}
