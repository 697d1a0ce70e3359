// Package bedrock provides a model.Client implementation backed by the AWS
// Bedrock Converse API. It skips streaming and thinking-budget controls: the
// orchestrator only needs a single opaque Generate call per turn.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"

	"github.com/Shubhamnegi/agent-core/model"
)

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client used by
// the adapter, matching *bedrockruntime.Client so tests can substitute a
// fake.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Client implements model.Client on top of AWS Bedrock Converse.
type Client struct {
	runtime   RuntimeClient
	modelID   string
	maxTokens int32
}

// New builds a Client from an existing Bedrock runtime client.
func New(runtime RuntimeClient, modelID string, maxTokens int32) (*Client, error) {
	if runtime == nil {
		return nil, errors.New("bedrock: runtime client is required")
	}
	if modelID == "" {
		return nil, errors.New("bedrock: model id is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{runtime: runtime, modelID: modelID, maxTokens: maxTokens}, nil
}

// Generate issues a single Converse call and translates the response.
func (c *Client) Generate(ctx context.Context, messages []model.Message, tools []model.ToolDef) (*model.Result, error) {
	if len(messages) == 0 {
		return nil, errors.New("bedrock: messages are required")
	}
	var system []brtypes.SystemContentBlock
	var convo []brtypes.Message
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: m.Content})
		case model.RoleUser:
			convo = append(convo, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		case model.RoleAssistant:
			convo = append(convo, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		case model.RoleTool:
			convo = append(convo, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{
					Value: fmt.Sprintf("[tool result %s] %s", m.ToolName, m.ToolResult),
				}},
			})
		}
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.modelID),
		System:   system,
		Messages: convo,
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens: aws.Int32(c.maxTokens),
		},
	}
	if len(tools) > 0 {
		input.ToolConfig = &brtypes.ToolConfiguration{Tools: encodeTools(tools)}
	}

	out, err := c.runtime.Converse(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("bedrock converse (%s): %w", apiErr.ErrorCode(), err)
		}
		return nil, fmt.Errorf("bedrock converse: %w", err)
	}
	return translateResponse(out)
}

func encodeTools(tools []model.ToolDef) []brtypes.Tool {
	out := make([]brtypes.Tool, 0, len(tools))
	for _, t := range tools {
		schema := t.Schema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		out = append(out, &brtypes.ToolMemberToolSpec{
			Value: brtypes.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(schema),
				},
			},
		})
	}
	return out
}

func translateResponse(out *bedrockruntime.ConverseOutput) (*model.Result, error) {
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return nil, errors.New("bedrock: unexpected converse output shape")
	}
	res := &model.Result{}
	if out.Usage != nil {
		res.Usage = model.Usage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
		}
	}
	var text string
	for _, block := range msg.Value.Content {
		switch v := block.(type) {
		case *brtypes.ContentBlockMemberText:
			text += v.Value
		case *brtypes.ContentBlockMemberToolUse:
			var args map[string]any
			if v.Value.Input != nil {
				raw, err := json.Marshal(v.Value.Input)
				if err != nil {
					return nil, fmt.Errorf("bedrock: encode tool_use input: %w", err)
				}
				if err := json.Unmarshal(raw, &args); err != nil {
					return nil, fmt.Errorf("bedrock: decode tool_use input: %w", err)
				}
			}
			res.ToolCall = &model.ToolCall{Name: aws.ToString(v.Value.Name), Args: args}
			return res, nil
		}
	}
	res.Text = text
	return res, nil
}
