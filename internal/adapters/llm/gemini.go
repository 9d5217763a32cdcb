package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultImageModel  = "gemini-2.5-flash-image"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice       = "Kore"

	imageAspectRatio = "4:3"
)

// GeminiConfig selects the backend (Gemini API with a key, or Vertex AI
// with a project and location) and the models used for each request kind.
type GeminiConfig struct {
	UseVertex bool
	APIKey    string
	Project   string
	Location  string

	TextModel   string
	ImageModel  string
	SpeechModel string
	Voice       string

	// BaseURL overrides the API endpoint. Empty means the backend default.
	BaseURL string

	// Timeout bounds every backend call. Zero means no limit beyond the
	// caller's context.
	Timeout         time.Duration
	SpeechCharLimit int
}

type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
}

// NewGeminiClient creates a domain.LLMClient backed by Gemini.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{Backend: genai.BackendGeminiAPI, APIKey: cfg.APIKey}
	if cfg.UseVertex {
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("vertex backend needs a project and a location")
		}
		cc = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	} else if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini backend needs an API key")
	}

	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = DefaultSpeechModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.SpeechCharLimit <= 0 {
		cfg.SpeechCharLimit = DefaultSpeechCharLimit
	}

	cc.HTTPOptions.BaseURL = cfg.BaseURL

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{client: client, cfg: cfg}, nil
}

func (g *GeminiClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.cfg.Timeout)
}

func (g *GeminiClient) tutorConfig(grade domain.Grade, lang domain.Language) *genai.GenerateContentConfig {
	temp := float32(0.7)
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction(grade, lang), genai.RoleUser),
		Temperature:       &temp,
	}
}

// generateText runs one text request and returns the model's text, which may
// be empty.
func (g *GeminiClient) generateText(ctx context.Context, model string, parts []*genai.Part, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	res, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", domain.ErrTransport, err)
	}
	return res.Text(), nil
}

func (g *GeminiClient) Explain(ctx context.Context, req domain.ExplainRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(lessonContextPrompt(req.LessonContext))}
	if req.Audio != nil {
		parts = append(parts,
			genai.NewPartFromText(voiceQuestionPrompt),
			genai.NewPartFromBytes(req.Audio.Data, req.Audio.MimeType),
		)
	} else {
		parts = append(parts, genai.NewPartFromText(explainPrompt(req)))
	}
	return g.generateText(ctx, g.cfg.TextModel, parts, g.tutorConfig(req.Grade, req.Language))
}

func (g *GeminiClient) Story(ctx context.Context, req domain.LessonContext) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(storyPrompt(req))}
	return g.generateText(ctx, g.cfg.TextModel, parts, g.tutorConfig(req.Grade, req.Language))
}

func (g *GeminiClient) CorrectHomework(ctx context.Context, req domain.HomeworkRequest) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Image.Data, req.Image.MimeType),
		genai.NewPartFromText(homeworkPrompt(req)),
	}
	return g.generateText(ctx, g.cfg.TextModel, parts, g.tutorConfig(req.Grade, req.Language))
}

var quizSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {Type: genai.TypeString},
			"options":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"correctAnswer": {
				Type:        genai.TypeInteger,
				Description: "Index of the correct answer (0-based)",
			},
			"explanation": {
				Type:        genai.TypeString,
				Description: "Simple explanation for why it is correct",
			},
		},
		Required: []string{"question", "options", "correctAnswer", "explanation"},
	},
}

func (g *GeminiClient) GenerateQuiz(ctx context.Context, req domain.QuizRequest) ([]domain.QuizQuestion, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction(req.Grade, req.Language), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    quizSchema,
	}
	text, err := g.generateText(ctx, g.cfg.TextModel, []*genai.Part{genai.NewPartFromText(quizPrompt(req))}, cfg)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	var questions []domain.QuizQuestion
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, fmt.Errorf("%w: decoding quiz: %v", domain.ErrTransport, err)
	}
	return questions, nil
}

// GenerateImages issues the primary and secondary image requests in
// parallel. Either failing fails both; a request that returns no image is
// skipped.
func (g *GeminiClient) GenerateImages(ctx context.Context, topic string) ([]string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	prompts := imagePrompts(topic)
	results := make([]string, len(prompts))
	cfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: imageAspectRatio},
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i, prompt := range prompts {
		eg.Go(func() error {
			contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
			res, err := g.client.Models.GenerateContent(egCtx, g.cfg.ImageModel, contents, cfg)
			if err != nil {
				return fmt.Errorf("%w: image %d: %v", domain.ErrTransport, i, err)
			}
			if blob := firstInlineData(res); blob != nil {
				results[i] = dataURL(blob)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	images := make([]string, 0, len(results))
	for _, img := range results {
		if img != "" {
			images = append(images, img)
		}
	}
	return images, nil
}

// Speak synthesizes text as base64 PCM16 at 24 kHz.
func (g *GeminiClient) Speak(ctx context.Context, text string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.cfg.Voice},
			},
		},
	}
	contents := []*genai.Content{genai.NewContentFromText(TruncateForSpeech(text, g.cfg.SpeechCharLimit), genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.cfg.SpeechModel, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: speech: %v", domain.ErrTransport, err)
	}
	blob := firstInlineData(res)
	if blob == nil || len(blob.Data) == 0 {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString(blob.Data), nil
}

func firstInlineData(res *genai.GenerateContentResponse) *genai.Blob {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range res.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil {
			return part.InlineData
		}
	}
	return nil
}

func dataURL(blob *genai.Blob) string {
	mime := blob.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(blob.Data)
}
