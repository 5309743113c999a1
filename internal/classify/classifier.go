// Package classify labels documents and images with one of a fixed set of
// file types using a chat model.
package classify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/datafog/datafog-go/internal/llm"
	"github.com/datafog/datafog-go/internal/llmjson"
	"github.com/datafog/datafog-go/internal/logging"
)

const (
	fileSystemPrompt  = "You are an expert file classifier. Analyze the given file content and classify it into one of the predefined categories."
	imageSystemPrompt = "You are an expert image classifier. Analyze the given image and classify it into one of the predefined categories."
)

// Classifier sends text to one model and images to another. Both may be the
// same client.
type Classifier struct {
	text   llm.Completer
	vision llm.Completer
	logger *zap.Logger
}

type Option func(*Classifier)

func WithLogger(l *zap.Logger) Option { return func(c *Classifier) { c.logger = l } }

// WithVision routes ClassifyImage to a separate vision-capable client.
func WithVision(v llm.Completer) Option { return func(c *Classifier) { c.vision = v } }

func New(text llm.Completer, opts ...Option) *Classifier {
	c := &Classifier{text: text}
	for _, o := range opts {
		o(c)
	}
	if c.vision == nil {
		c.vision = text
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// ClassifyFile classifies a text document by its name and content.
func (c *Classifier) ClassifyFile(ctx context.Context, content, name string) (FileClassification, error) {
	if strings.TrimSpace(content) == "" {
		return FileClassification{}, ErrEmptyContent
	}
	if strings.TrimSpace(name) == "" {
		return FileClassification{}, ErrEmptyFileName
	}
	user := fmt.Sprintf("Classify this file:\nFile Name: %s\nContent: %s", name, content)
	return c.complete(ctx, c.text, name, llm.System(systemPrompt(fileSystemPrompt)), llm.User(user))
}

// ClassifyImage reads the image at path and classifies its visual content.
func (c *Classifier) ClassifyImage(ctx context.Context, path string) (FileClassification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileClassification{}, fmt.Errorf("image file not found: %w", err)
	}
	if len(data) == 0 {
		return FileClassification{}, ErrEmptyImage
	}
	name := filepath.Base(path)
	c.logger.Debug("classifying image", zap.String("file", name), zap.Int("bytes", len(data)))
	return c.complete(ctx, c.vision, name,
		llm.System(systemPrompt(imageSystemPrompt)),
		llm.UserWithImage("Classify this image:", DataURL(data)))
}

// DataURL encodes data as a base64 data URL. The media type is sniffed and
// falls back to image/jpeg when the content is not recognised as an image.
func DataURL(data []byte) string {
	mt := http.DetectContentType(data)
	if !strings.HasPrefix(mt, "image/") {
		mt = "image/jpeg"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (c *Classifier) complete(ctx context.Context, client llm.Completer, name string, msgs ...llm.Message) (FileClassification, error) {
	raw, err := client.Complete(ctx, msgs...)
	if err != nil {
		return FileClassification{}, fmt.Errorf("classify %s: %w", name, err)
	}
	var fc FileClassification
	if err := llmjson.Decode(raw, &fc); err != nil {
		return FileClassification{}, fmt.Errorf("classify %s: %w", name, err)
	}
	if strings.TrimSpace(fc.FileName) == "" {
		fc.FileName = name
	}
	if err := fc.Validate(); err != nil {
		return FileClassification{}, fmt.Errorf("classify %s: %w", name, err)
	}
	return fc, nil
}

func systemPrompt(base string) string {
	labels := make([]string, 0, len(FileTypes()))
	for _, ft := range FileTypes() {
		labels = append(labels, string(ft))
	}
	return base + "\n\nRespond ONLY with a JSON object with the keys file_name, file_type, confidence, keywords and summary. " +
		"file_type must be one of: " + strings.Join(labels, ", ") + ". " +
		"confidence is a number between 0 and 1, keywords is a non-empty list of strings, summary is one or two sentences."
}
