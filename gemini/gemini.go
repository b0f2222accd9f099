package gemini

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/nijaru/podcast-automation/errors"
	"github.com/nijaru/podcast-automation/middleware"
)

const (
	APIKeyEnv = "GEMINI_API_KEY"

	pollInterval     = 2 * time.Second
	defaultModelName = "gemini-2.5-flash"
)

// File is a media upload that generate requests can reference.
type File struct {
	Name     string
	URI      string
	MimeType string
}

type Request struct {
	Model           string
	Prompt          string
	File            *File
	Temperature     float32
	MaxOutputTokens int32
}

// Generator is the subset of the hosted API the pipeline needs.
type Generator interface {
	UploadFile(ctx context.Context, path, mimeType string) (*File, error)
	DeleteFile(ctx context.Context, name string) error
	Generate(ctx context.Context, req Request) (string, error)
}

// Factory builds a Generator for one credential.
type Factory func(ctx context.Context, apiKey string) (Generator, error)

// NewGenerator builds the default Generator, logging its HTTP traffic to
// logger.
func NewGenerator(ctx context.Context, apiKey string, logger logrus.FieldLogger) (Generator, error) {
	return NewClient(ctx, Config{APIKey: apiKey, Logger: logger})
}

type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint. Empty means the public endpoint.
	BaseURL string
	Logger  logrus.FieldLogger
}

type Client struct {
	genai  *genai.Client
	logger logrus.FieldLogger
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	const op = "gemini.NewClient"

	if cfg.APIKey == "" {
		return nil, errors.Configuration(op, nil, "Gemini API key not provided")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Transport: middleware.NewLoggingTransport(http.DefaultTransport, logger),
		},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, errors.Configuration(op, err, "Failed to create Gemini client")
	}

	return &Client{genai: client, logger: logger}, nil
}

// ResolveAPIKey returns explicit when set, otherwise GEMINI_API_KEY.
func ResolveAPIKey(explicit string) (string, error) {
	const op = "gemini.ResolveAPIKey"

	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		return key, nil
	}
	return "", errors.Configuration(op, nil,
		fmt.Sprintf("Gemini API key not provided. Set %s environment variable or pass an API key.", APIKeyEnv))
}

// ModelName normalizes a bare model id to its resource name.
func ModelName(model string) string {
	if model == "" {
		model = defaultModelName
	}
	if strings.HasPrefix(model, "models/") || strings.HasPrefix(model, "tunedModels/") {
		return model
	}
	return "models/" + model
}

// UploadFile uploads path and waits until the service has finished
// processing it.
func (c *Client) UploadFile(ctx context.Context, path, mimeType string) (*File, error) {
	file, err := c.genai.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: filepath.Base(path),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "error uploading file")
	}

	c.logger.WithFields(logrus.Fields{
		"name":  file.Name,
		"state": file.State,
	}).Debug("File uploaded")

	for file.State == genai.FileStateProcessing {
		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		file, err = c.genai.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "error checking uploaded file")
		}
	}
	if file.State != "" && file.State != genai.FileStateActive {
		return nil, pkgerrors.Errorf("uploaded file is in state %s", file.State)
	}

	return &File{Name: file.Name, URI: file.URI, MimeType: file.MIMEType}, nil
}

func (c *Client) DeleteFile(ctx context.Context, name string) error {
	if _, err := c.genai.Files.Delete(ctx, name, nil); err != nil {
		return pkgerrors.Wrapf(err, "error deleting %s", name)
	}
	return nil
}

// Generate runs one generateContent call and returns the concatenated text
// of the first candidate. Blocked prompts and safety stops are errors.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.File != nil {
		parts = append(parts, genai.NewPartFromURI(req.File.URI, req.File.MimeType))
	}

	resp, err := c.genai.Models.GenerateContent(ctx, ModelName(req.Model),
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(req.Temperature),
			MaxOutputTokens: req.MaxOutputTokens,
		})
	if err != nil {
		return "", err
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", pkgerrors.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 && candidate.FinishReason == genai.FinishReasonSafety {
		return "", pkgerrors.New("response blocked by safety filters")
	}
	return sb.String(), nil
}

// StatusCode returns the HTTP status of an upstream API error, or 0.
func StatusCode(err error) int {
	var apiErr genai.APIError
	if pkgerrors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if pkgerrors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}

// IsAuthError reports whether err looks like a rejected credential.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if StatusCode(err) == http.StatusUnauthorized {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "api key")
}

// IsBlockedError reports whether err came from a content filter.
func IsBlockedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "blocked") || strings.Contains(msg, "safety")
}
