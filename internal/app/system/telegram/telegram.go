// Package telegram adapts github.com/go-telegram/bot to what the webhook
// needs: reading incoming messages, downloading attached files and
// replying with sendMessage.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// SecretHeader carries the secret token configured with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// MaxDownload bounds file downloads (the Bot API itself caps getFile at 20 MB).
const MaxDownload = 20 << 20

// MaxMessage is the longest text sendMessage accepts.
const MaxMessage = 4096

// ErrFileTooLarge is returned when a file exceeds MaxDownload.
var ErrFileTooLarge = errors.New("telegram: file too large")

// FileRef identifies an attachment on a message.
type FileRef struct {
	FileID   string
	FileName string
	MimeType string
}

// Body returns the message text, or the caption for media messages.
func Body(m *models.Message) string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// File returns the document, or the largest photo size, if any.
func File(m *models.Message) (FileRef, bool) {
	if m.Document != nil && m.Document.FileID != "" {
		return FileRef{FileID: m.Document.FileID, FileName: m.Document.FileName, MimeType: m.Document.MimeType}, true
	}
	if len(m.Photo) > 0 {
		best := m.Photo[0]
		for _, p := range m.Photo[1:] {
			if p.Width*p.Height > best.Width*best.Height {
				best = p
			}
		}
		return FileRef{FileID: best.FileID, FileName: "photo.jpg", MimeType: "image/jpeg"}, true
	}
	return FileRef{}, false
}

// Client talks to the Bot API for one bot token.
type Client struct {
	bot   *bot.Bot
	http  *http.Client
	token string
}

// New creates a Client without contacting Telegram. baseURL defaults to
// https://api.telegram.org.
func New(token, baseURL string, hc *http.Client) (*Client, error) {
	if hc == nil {
		hc = &http.Client{Timeout: time.Minute}
	}
	opts := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(time.Minute, hc),
	}
	if baseURL != "" {
		opts = append(opts, bot.WithServerURL(strings.TrimRight(baseURL, "/")))
	}
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Client{bot: b, http: hc, token: token}, nil
}

// redact keeps the bot token, which is part of every request URL, out of
// errors that end up in logs.
func (c *Client) redact(op string, err error) error {
	return fmt.Errorf("telegram %s: %s", op, strings.ReplaceAll(err.Error(), c.token, "<token>"))
}

// SendMessage posts plain text to a chat. Longer text is truncated to
// MaxMessage characters.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if r := []rune(text); len(r) > MaxMessage {
		text = string(r[:MaxMessage-3]) + "..."
	}
	if _, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		return c.redact("sendMessage", err)
	}
	return nil
}

// Download resolves fileID with getFile and fetches the content.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	f, err := c.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, c.redact("getFile", err)
	}
	if f.FileSize > MaxDownload {
		return nil, ErrFileTooLarge
	}
	if f.FilePath == "" {
		return nil, errors.New("telegram getFile: no file_path")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bot.FileDownloadLink(f), nil)
	if err != nil {
		return nil, c.redact("download", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.redact("download", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram download: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownload+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDownload {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
