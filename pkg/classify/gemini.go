package classify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/user/secmerge/pkg/logging"
)

// sampleSize bounds how much of a file is sent for classification.
const sampleSize = 8 << 10

const languagePrompt = "Identify the programming language of the following source file. " +
	"Answer with the language name only, for example C, C++, Python or Go.\n\n"

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClassifier asks a Gemini model to name the language of a file's
// contents, for sources whose extension cannot be trusted.
type GeminiClassifier struct {
	client *genai.Client
	model  generator
}

func NewGemini(ctx context.Context, apiKey, modelName string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &GeminiClassifier{client: client, model: model}, nil
}

func (g *GeminiClassifier) Language(ctx context.Context, path string) string {
	sample, err := readSample(path)
	if err != nil {
		logging.Warnf("classify %s: %v", path, err)
		return Unknown
	}
	if strings.TrimSpace(sample) == "" {
		return Unknown
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(languagePrompt+sample))
	if err != nil {
		logging.Warnf("classify %s: %v", path, err)
		return Unknown
	}
	return languageFrom(resp)
}

func (g *GeminiClassifier) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// ListModels returns the Gemini models available to apiKey.
func ListModels(ctx context.Context, apiKey string) ([]string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	iter := client.ListModels(ctx)
	var names []string
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.Contains(m.Name, "gemini") {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return names, nil
}

func readSample(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, sampleSize))
	if err != nil {
		return "", fmt.Errorf("read sample: %w", err)
	}
	return string(buf), nil
}

func languageFrom(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Unknown
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	lang := strings.ToLower(strings.TrimSpace(sb.String()))
	lang = strings.Trim(lang, ".`\"' ")
	if lang == "" {
		return Unknown
	}
	return lang
}
