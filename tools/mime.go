package tools

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shubhamnegi/agent-core/config"
)

// buildMIMEMessage assembles a multipart/mixed (or multipart/alternative
// nested inside it) RFC 5322 message, mirroring email.message.EmailMessage's
// set_content/add_alternative/add_attachment composition. Go's stdlib has
// no multipart email builder of its own (net/smtp only dials and streams
// raw bytes), so this mirrors the original's own stdlib (email.message)
// choice rather than reaching for a third-party mail library no repo in
// the pack carries.
func buildMIMEMessage(cfg config.SMTPConfig, to, cc []string, subject, bodyText, bodyHTML string, attachmentPaths []string) ([]byte, int, error) {
	var buf bytes.Buffer
	boundary := "agent-core-boundary"

	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%q <%s>", cfg.FromName, cfg.FromEmail)
	}

	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	if len(cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	text := bodyText
	if text == "" {
		text = "See HTML body."
	}
	if bodyHTML != "" {
		altBoundary := boundary + "-alt"
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", altBoundary)
		fmt.Fprintf(&buf, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n\r\n", altBoundary, text)
		fmt.Fprintf(&buf, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n\r\n", altBoundary, bodyHTML)
		fmt.Fprintf(&buf, "--%s--\r\n\r\n", altBoundary)
	} else {
		fmt.Fprintf(&buf, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n\r\n", boundary, text)
	}

	attachmentCount := 0
	for _, path := range attachmentPaths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, fmt.Errorf("attachment_not_found:%s", path)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		name := filepath.Base(path)
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; name=%q\r\n", mimeType, name)
		fmt.Fprintf(&buf, "Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", name)
		buf.WriteString(base64.StdEncoding.EncodeToString(content))
		buf.WriteString("\r\n\r\n")
		attachmentCount++
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes(), attachmentCount, nil
}
