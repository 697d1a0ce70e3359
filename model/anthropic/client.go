// Package anthropic provides a model.Client implementation backed by the
// Anthropic Claude Messages API. It deliberately skips streaming and
// thinking budgets: the orchestrator only needs the opaque
// generate(prompt, tools) -> (text | tool_call) capability.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Shubhamnegi/agent-core/model"
)

// MessagesClient captures the subset of the Anthropic SDK used by the
// adapter, so tests can substitute a fake without a live API key.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client implements model.Client on top of Anthropic Claude Messages.
type Client struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
}

// New builds a Client from an existing Anthropic Messages client.
func New(msg MessagesClient, defaultModel string, maxTokens int) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	if defaultModel == "" {
		return nil, errors.New("anthropic: default model is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{msg: msg, defaultModel: defaultModel, maxTokens: maxTokens}, nil
}

// NewFromAPIKey constructs a Client using the standard Anthropic HTTP
// transport, reading credentials the way sdk.NewClient does (ANTHROPIC_API_KEY
// by default when apiKey is empty).
func NewFromAPIKey(apiKey, defaultModel string, maxTokens int) (*Client, error) {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	c := sdk.NewClient(opts...)
	return New(&c.Messages, defaultModel, maxTokens)
}

// Generate translates messages/tools into a single Anthropic Messages.New
// call and maps the response back into model.Result.
func (c *Client) Generate(ctx context.Context, messages []model.Message, tools []model.ToolDef) (*model.Result, error) {
	if len(messages) == 0 {
		return nil, errors.New("anthropic: messages are required")
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.defaultModel),
		MaxTokens: int64(c.maxTokens),
	}
	var system string
	var msgs []sdk.MessageParam
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += m.Content
		case model.RoleUser:
			msgs = append(msgs, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case model.RoleAssistant:
			msgs = append(msgs, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		case model.RoleTool:
			msgs = append(msgs, sdk.NewUserMessage(sdk.NewTextBlock(
				fmt.Sprintf("[tool result %s] %s", m.ToolName, m.ToolResult))))
		}
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	params.Messages = msgs
	if len(tools) > 0 {
		params.Tools = encodeTools(tools)
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}
	return translateResponse(msg)
}

func encodeTools(tools []model.ToolDef) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := t.Schema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		out = append(out, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				InputSchema: sdk.ToolInputSchemaParam{
					Properties: schema["properties"],
				},
			},
		})
	}
	return out
}

// translateResponse picks the first tool-use block, if any, else concatenates
// text blocks — the "(text | tool_call)" union, preferring a
// tool call when the model issued one in the same turn.
func translateResponse(msg *sdk.Message) (*model.Result, error) {
	res := &model.Result{Usage: model.Usage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}}
	var text string
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case sdk.TextBlock:
			text += variant.Text
		case sdk.ToolUseBlock:
			var args map[string]any
			if len(variant.Input) > 0 {
				if err := json.Unmarshal([]byte(variant.Input), &args); err != nil {
					return nil, fmt.Errorf("anthropic: decode tool_use input: %w", err)
				}
			}
			res.ToolCall = &model.ToolCall{Name: variant.Name, Args: args}
			return res, nil
		}
	}
	res.Text = text
	return res, nil
}
