package telegram_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/nestoreco/nestor/internal/app/system/telegram"
)

const token = "12345:test-token"

// params reads the request parameters whether the client posted a form
// or a JSON body.
func params(r *http.Request) map[string]string {
	out := map[string]string{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		for k, v := range m {
			out[k] = strings.TrimSuffix(fmt.Sprint(v), ".0")
		}
		return out
	}
	_ = r.ParseMultipartForm(1 << 20)
	for k := range r.Form {
		out[k] = r.FormValue(k)
	}
	return out
}

func TestMessage_BodyAndFile(t *testing.T) {
	tests := []struct {
		name     string
		msg      models.Message
		wantBody string
		wantFile string
	}{
		{"text", models.Message{Text: "ciao"}, "ciao", ""},
		{"document with caption", models.Message{Caption: "offer", Document: &models.Document{FileID: "doc1", FileName: "o.pdf"}}, "offer", "doc1"},
		{"largest photo", models.Message{Photo: []models.PhotoSize{
			{FileID: "small", Width: 90, Height: 90},
			{FileID: "big", Width: 1280, Height: 960},
			{FileID: "mid", Width: 320, Height: 240},
		}}, "", "big"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := telegram.Body(&tt.msg); got != tt.wantBody {
				t.Errorf("Body() = %q", got)
			}
			f, ok := telegram.File(&tt.msg)
			if ok != (tt.wantFile != "") || f.FileID != tt.wantFile {
				t.Errorf("File() = %+v, %v", f, ok)
			}
		})
	}
}

func TestUpdate_Decodes(t *testing.T) {
	var upd models.Update
	raw := `{"update_id":9,"message":{"message_id":3,"chat":{"id":77,"type":"private"},"caption":"quote","document":{"file_id":"d1","file_unique_id":"u1","file_name":"q.pdf","mime_type":"application/pdf"}}}`
	if err := json.Unmarshal([]byte(raw), &upd); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if upd.ID != 9 || upd.Message == nil || upd.Message.Chat.ID != 77 {
		t.Fatalf("update = %+v", upd)
	}
	f, ok := telegram.File(upd.Message)
	if !ok || f.FileName != "q.pdf" || f.MimeType != "application/pdf" {
		t.Errorf("File() = %+v, %v", f, ok)
	}
}

func TestClient_DownloadAndSend(t *testing.T) {
	var chatID, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bot" + token + "/getFile":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"doc1","file_unique_id":"u","file_path":"documents/file_1.pdf","file_size":4}}`))
		case "/file/bot" + token + "/documents/file_1.pdf":
			_, _ = w.Write([]byte("%PDF"))
		case "/bot" + token + "/sendMessage":
			p := params(r)
			chatID, text = p["chat_id"], p["text"]
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := telegram.New(token, srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := c.Download(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "%PDF" {
		t.Errorf("data = %q", data)
	}

	if err := c.SendMessage(context.Background(), 42, strings.Repeat("x", 5000)); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if chatID != "42" {
		t.Errorf("chat_id = %q", chatID)
	}
	if n := len([]rune(text)); n != telegram.MaxMessage {
		t.Errorf("text length = %d", n)
	}
}

func TestClient_APIErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	c, err := telegram.New(token, srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = c.SendMessage(context.Background(), 1, "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v", err)
	}

	c, _ = telegram.New(token, "http://127.0.0.1:1", nil)
	if err := c.SendMessage(context.Background(), 1, "hi"); err == nil || strings.Contains(err.Error(), token) {
		t.Errorf("transport error should hide the token: %v", err)
	}
}

func TestClient_FileTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"x","file_unique_id":"u","file_path":"big.bin","file_size":104857600}}`))
	}))
	defer srv.Close()

	c, err := telegram.New(token, srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Download(context.Background(), "x"); !errors.Is(err, telegram.ErrFileTooLarge) {
		t.Errorf("err = %v", err)
	}
}
