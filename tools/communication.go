package tools

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/Shubhamnegi/agent-core/config"
	"github.com/Shubhamnegi/agent-core/reqctx"
	goslack "github.com/slack-go/slack"
)

const defaultCommunicationConfigPath = "config/communication_config.json"

// SendSlackMessage posts text (and, optionally, Block Kit blocks and a
// file) to a Slack channel, grounded on send_slack_message. blocksJSON, if
// non-empty, must decode as a JSON array of block objects.
func SendSlackMessage(ctx context.Context, channel, text, blocksJSON, filePath, fileName, threadTS string) map[string]any {
	cfg := resolveSlackConfig(ctx)
	if cfg.BotToken == "" {
		return map[string]any{"status": "not_configured", "reason": "slack_token_missing", "channel": channel}
	}

	var blocks []goslack.Block
	if blocksJSON != "" {
		parsedBlocks, err := parseSlackBlocks(blocksJSON)
		if err != nil {
			return map[string]any{"status": "failed", "reason": err.Error(), "channel": channel}
		}
		blocks = parsedBlocks
	}

	client := newSlackClient(cfg)
	opts := []goslack.MsgOption{goslack.MsgOptionText(text, false)}
	if len(blocks) > 0 {
		opts = append(opts, goslack.MsgOptionBlocks(blocks...))
	}
	if threadTS != "" {
		opts = append(opts, goslack.MsgOptionTS(threadTS))
	}

	postCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	respChannel, messageTS, err := client.PostMessageContext(postCtx, channel, opts...)
	if err != nil {
		return map[string]any{"status": "failed", "reason": "slack_api_error", "channel": channel, "error": err.Error()}
	}

	var fileUpload map[string]any
	if filePath != "" {
		if _, statErr := os.Stat(filePath); statErr != nil {
			return map[string]any{"status": "failed", "reason": "file_not_found", "channel": channel, "path": filePath}
		}
		name := fileName
		if name == "" {
			name = filePath
		}
		uploadTS := threadTS
		if uploadTS == "" {
			uploadTS = messageTS
		}
		summary, uploadErr := client.UploadFileV2Context(postCtx, goslack.UploadFileV2Parameters{
			Channel:         channel,
			File:            filePath,
			Filename:        name,
			Title:           name,
			ThreadTimestamp: uploadTS,
		})
		if uploadErr != nil {
			fileUpload = map[string]any{"status": "failed", "reason": uploadErr.Error()}
		} else {
			fileUpload = map[string]any{"status": "ok", "file": summary}
		}
	}

	return map[string]any{
		"status":     "ok",
		"channel":    respChannel,
		"message_ts": messageTS,
		"message": map[string]any{
			"ts":      messageTS,
			"channel": respChannel,
			"text":    text,
		},
		"file_upload": fileUpload,
	}
}

// ReadSlackMessages fetches recent channel history, grounded on
// read_slack_messages.
func ReadSlackMessages(ctx context.Context, channel string, limit int, includeFiles bool) map[string]any {
	cfg := resolveSlackConfig(ctx)
	if cfg.BotToken == "" {
		return map[string]any{"status": "not_configured", "reason": "slack_token_missing", "channel": channel}
	}
	safeLimit := limit
	if safeLimit < 1 {
		safeLimit = 1
	}
	if safeLimit > 200 {
		safeLimit = 200
	}

	client := newSlackClient(cfg)
	readCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	history, err := client.GetConversationHistoryContext(readCtx, &goslack.GetConversationHistoryParameters{
		ChannelID: channel,
		Limit:     safeLimit,
	})
	if err != nil {
		return map[string]any{"status": "failed", "reason": "slack_api_error", "channel": channel, "error": err.Error()}
	}

	messages := make([]map[string]any, 0, len(history.Messages))
	for _, raw := range history.Messages {
		item := map[string]any{
			"ts":        raw.Timestamp,
			"thread_ts": raw.ThreadTimestamp,
			"user":      raw.User,
			"text":      raw.Text,
		}
		if includeFiles {
			item["files"] = normalizeSlackFiles(raw.Files)
		}
		messages = append(messages, item)
	}

	return map[string]any{
		"status":   "ok",
		"channel":  channel,
		"count":    len(messages),
		"messages": messages,
	}
}

// SendEmailSMTP sends a plain/HTML email with optional attachments through
// the configured SMTP relay, grounded on send_email_smtp.
func SendEmailSMTP(ctx context.Context, toEmails, subject, bodyText, bodyHTML, ccEmails, bccEmails, attachmentPathsJSON string) map[string]any {
	cfg := resolveSMTPConfig(ctx)
	if cfg.Host == "" || cfg.Port == 0 || cfg.FromEmail == "" {
		return map[string]any{"status": "not_configured", "reason": "smtp_config_incomplete"}
	}

	toList := parseCSVEmails(toEmails)
	ccList := parseCSVEmails(ccEmails)
	bccList := parseCSVEmails(bccEmails)
	recipients := append(append(append([]string{}, toList...), ccList...), bccList...)
	if len(recipients) == 0 {
		return map[string]any{"status": "failed", "reason": "no_recipients"}
	}

	attachmentPaths, ok := parseStringListJSON(attachmentPathsJSON)
	if !ok {
		return map[string]any{"status": "failed", "reason": "invalid_attachment_paths_json"}
	}

	message, attachmentCount, buildErr := buildMIMEMessage(cfg, toList, ccList, subject, bodyText, bodyHTML, attachmentPaths)
	if buildErr != nil {
		return map[string]any{"status": "failed", "reason": buildErr.Error()}
	}

	if err := dialAndSend(cfg, recipients, message); err != nil {
		return map[string]any{"status": "failed", "reason": fmt.Sprintf("smtp_send_failed:%s", err.Error())}
	}

	return map[string]any{
		"status":           "ok",
		"subject":          subject,
		"recipient_count":  len(recipients),
		"attachment_count": attachmentCount,
	}
}

func newSlackClient(cfg config.SlackConfig) *goslack.Client {
	if cfg.BaseURL != "" {
		return goslack.New(cfg.BotToken, goslack.OptionAPIURL(cfg.BaseURL))
	}
	return goslack.New(cfg.BotToken)
}

func resolveSlackConfig(ctx context.Context) config.SlackConfig {
	cfg := loadCommunicationConfig(ctx)
	envName := cfg.Slack.BotTokenEnv
	if envName == "" {
		envName = "SLACK_BOT_TOKEN"
	}
	token := config.ResolveSecret(cfg.Slack.BotToken, envName)
	baseURL := cfg.Slack.BaseURL
	if baseURL == "" {
		baseURL = "https://slack.com/api"
	}
	return config.SlackConfig{BotToken: token, BaseURL: baseURL}
}

func resolveSMTPConfig(ctx context.Context) config.SMTPConfig {
	cfg := loadCommunicationConfig(ctx)
	smtpCfg := cfg.SMTP
	envName := smtpCfg.PasswordEnv
	if envName == "" {
		envName = "SMTP_PASSWORD"
	}
	smtpCfg.Password = config.ResolveSecret(smtpCfg.Password, envName)
	return smtpCfg
}

// WithCommunicationConfigPath binds a communication config file path onto
// ctx for the Slack/SMTP adapters to read, without requiring a full
// reqctx.ToolRuntime when only the communication side-config matters (e.g.
// tests, or a process-wide default set once at startup).
func WithCommunicationConfigPath(ctx context.Context, path string) context.Context {
	return reqctx.WithToolRuntime(ctx, &reqctx.ToolRuntime{CommunicationConfigPath: path})
}

func loadCommunicationConfig(ctx context.Context) config.CommunicationConfig {
	path := defaultCommunicationConfigPath
	if rt := reqctx.FromContext(ctx); rt != nil && rt.CommunicationConfigPath != "" {
		path = rt.CommunicationConfigPath
	}
	return config.LoadCommunicationConfig(path)
}

func parseSlackBlocks(blocksJSON string) ([]goslack.Block, error) {
	var raw []map[string]any
	if err := json.Unmarshal([]byte(blocksJSON), &raw); err != nil {
		return nil, fmt.Errorf("invalid_blocks_json")
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid_blocks_json")
	}
	var blockSet goslack.Blocks
	if err := json.Unmarshal(encoded, &blockSet); err != nil {
		return nil, fmt.Errorf("blocks_json_must_be_array")
	}
	return blockSet.BlockSet, nil
}

func normalizeSlackFiles(files []goslack.File) []map[string]any {
	out := make([]map[string]any, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]any{
			"id":       f.ID,
			"name":     f.Name,
			"title":    f.Title,
			"filetype": f.Filetype,
			"mimetype": f.Mimetype,
			"size":     f.Size,
		})
	}
	return out
}

func parseCSVEmails(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseStringListJSON(raw string) ([]string, bool) {
	if raw == "" {
		return nil, true
	}
	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false
	}
	for i, item := range parsed {
		parsed[i] = strings.TrimSpace(item)
		if parsed[i] == "" {
			return nil, false
		}
	}
	return parsed, true
}

func dialAndSend(cfg config.SMTPConfig, recipients []string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	useSSL := cfg.UseSSL != nil && *cfg.UseSSL
	useTLS := cfg.UseTLS == nil || *cfg.UseTLS

	if useSSL {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
		if err != nil {
			return err
		}
		defer conn.Close()
		client, err := smtp.NewClient(conn, cfg.Host)
		if err != nil {
			return err
		}
		defer client.Close()
		return sendViaClient(client, auth, cfg.FromEmail, recipients, message)
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()
	if useTLS {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return err
		}
	}
	return sendViaClient(client, auth, cfg.FromEmail, recipients, message)
}

func sendViaClient(client *smtp.Client, auth smtp.Auth, from string, recipients []string, message []byte) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(message); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}
