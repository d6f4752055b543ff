package contentgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"gorm.io/datatypes"

	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/types"
)

const systemPrompt = `You write USMLE Step 2 CK practice questions.
Return ONLY a JSON object with fields:
  "vignette": clinical vignette text,
  "choices": array of 5 answer choice strings,
  "correct_choice": zero-based index of the correct choice,
  "explanation": {"kind":"framework","framework":{"key_finding":...,"reasoning":[...],"why_not_others":[...],"takeaway_pearl":...}}
No markdown, no commentary.`

// generatedPayload is the wire shape the model is asked for.
type generatedPayload struct {
	Vignette      string          `json:"vignette"`
	Choices       []string        `json:"choices"`
	CorrectChoice int             `json:"correct_choice"`
	Explanation   json.RawMessage `json:"explanation"`
}

type openAIGenerator struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

// NewOpenAIGenerator builds the LLM-backed Generator. The caller bounds
// each Generate call with its own context deadline.
func NewOpenAIGenerator(apiKey, model string, log *logger.Logger) (Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("contentgen: missing API key")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log.With("client", "ContentGenerator"),
	}, nil
}

func (g *openAIGenerator) Generate(ctx context.Context, d Directive) (*types.Question, error) {
	difficulty := d.DifficultyHint
	if !types.ValidDifficulty(difficulty) {
		difficulty = types.DifficultyMedium
	}
	userPrompt := fmt.Sprintf("Topic: %s. Difficulty: %s.", d.Topic, difficulty)

	started := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("contentgen: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("contentgen: empty completion response")
	}
	g.log.Debug("Generated question candidate",
		"topic", d.Topic, "difficulty", difficulty, "elapsed", time.Since(started))

	var payload generatedPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("contentgen: decode payload: %w", err)
	}
	return buildQuestion(d.Topic, difficulty, payload)
}

func buildQuestion(topic, difficulty string, payload generatedPayload) (*types.Question, error) {
	if strings.TrimSpace(payload.Vignette) == "" {
		return nil, fmt.Errorf("contentgen: payload missing vignette")
	}
	if len(payload.Choices) < 2 {
		return nil, fmt.Errorf("contentgen: payload has %d choices", len(payload.Choices))
	}
	if payload.CorrectChoice < 0 || payload.CorrectChoice >= len(payload.Choices) {
		return nil, fmt.Errorf("contentgen: correct_choice %d out of range", payload.CorrectChoice)
	}

	choices, err := json.Marshal(payload.Choices)
	if err != nil {
		return nil, fmt.Errorf("contentgen: encode choices: %w", err)
	}

	// Normalize whatever explanation shape came back through the tagged
	// union so nothing downstream touches an unchecked blob.
	var explanation datatypes.JSON
	if len(payload.Explanation) > 0 {
		parsed, err := types.ParseExplanation(payload.Explanation)
		if err != nil {
			parsed = &types.Explanation{Kind: types.KindLegacy, Legacy: payload.Explanation}
		}
		encoded, err := parsed.Encode()
		if err != nil {
			return nil, fmt.Errorf("contentgen: encode explanation: %w", err)
		}
		explanation = encoded
	}

	return &types.Question{
		ID:            uuid.New(),
		Topic:         topic,
		Source:        "generated_" + time.Now().UTC().Format("2006"),
		Difficulty:    difficulty,
		Vignette:      payload.Vignette,
		Choices:       choices,
		CorrectChoice: payload.CorrectChoice,
		Explanation:   explanation,
		Generated:     true,
	}, nil
}
