package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/maestrohq/maestro/pkg/models"
)

// Role-specific system prompts. The prompt is the only thing that
// differentiates the built-in specialist workers; everything else is the
// shared chat-completion call.
var rolePrompts = map[models.Role]string{
	models.RoleAnalyst: "You are a consulting analyst. Evaluate the request, weigh trade-offs, " +
		"and deliver clear, actionable recommendations.",
	models.RoleResearcher: "You are a consulting researcher. Gather background, survey prior work, " +
		"and summarize relevant context for the request.",
	models.RoleDataAnalyst: "You are a consulting data analyst. Focus on quantitative evidence, " +
		"metrics, and statistics relevant to the request.",
	models.RoleManager: "You are an engagement manager. Coordinate work, decompose goals into " +
		"tasks, and synthesize findings into deliverables.",
}

// OpenAIWorker delegates a prompt to an OpenAI chat completion with a
// role-specific system prompt.
type OpenAIWorker struct {
	name         string
	client       *openai.Client
	model        string
	systemPrompt string
	logger       *slog.Logger
}

func NewOpenAIWorker(name string, client *openai.Client, model string, role models.Role, logger *slog.Logger) *OpenAIWorker {
	prompt, ok := rolePrompts[role]
	if !ok {
		prompt = rolePrompts[models.RoleAnalyst]
	}

	return &OpenAIWorker{
		name:         name,
		client:       client,
		model:        model,
		systemPrompt: prompt,
		logger:       logger.With("worker", name, "role", string(role)),
	}
}

func (w *OpenAIWorker) Name() string {
	return w.name
}

func (w *OpenAIWorker) Run(ctx context.Context, prompt string) (string, error) {
	w.logger.Debug("Dispatching prompt", "model", w.model, "prompt_len", len(prompt))

	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: w.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: w.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	w.logger.Debug("Received completion", "finish_reason", resp.Choices[0].FinishReason)

	return resp.Choices[0].Message.Content, nil
}

// RegisterOpenAIWorkers binds every built-in role to an OpenAI-backed
// factory sharing one client.
func RegisterOpenAIWorkers(r *Registry, client *openai.Client, model string, logger *slog.Logger) {
	for _, role := range models.Roles() {
		r.Register(role, func(name string) (Worker, error) {
			return NewOpenAIWorker(name, client, model, role, logger), nil
		})
	}
}
