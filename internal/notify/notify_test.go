package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var _ Sink = (*SendGrid)(nil)
var _ Sink = (*Log)(nil)

func TestLog_Send(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	err := sink.Send(context.Background(), "DNS update notification", []string{
		"Updated home.example.com A from 1.1.1.1 to 10.0.0.5",
		"Added www.example.com A 10.0.0.5",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"DNS update notification", "changes=2", "Updated home.example.com", "Added www.example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestBodies(t *testing.T) {
	lines := []string{"Updated a.example.com A from 1.1.1.1 to 2.2.2.2", "Added <b>.example.com A 2.2.2.2"}

	if got, want := PlainBody(lines), lines[0]+"\n"+lines[1]; got != want {
		t.Errorf("PlainBody() = %q, want %q", got, want)
	}

	want := "<strong>Updated a.example.com A from 1.1.1.1 to 2.2.2.2<br>Added &lt;b&gt;.example.com A 2.2.2.2</strong>"
	if got := HTMLBody(lines); got != want {
		t.Errorf("HTMLBody() = %q, want %q", got, want)
	}
}

func TestSendGridConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SendGridConfig
		wantErr bool
	}{
		{"valid", SendGridConfig{APIKey: "SG.x", From: "a@example.com", To: "b@example.com"}, false},
		{"missing key", SendGridConfig{From: "a@example.com", To: "b@example.com"}, true},
		{"missing from", SendGridConfig{APIKey: "SG.x", To: "b@example.com"}, true},
		{"missing to", SendGridConfig{APIKey: "SG.x", From: "a@example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewSendGrid(SendGridConfig{}); err == nil {
		t.Error("NewSendGrid() should reject an invalid config")
	}
}

type mailRequest struct {
	From struct {
		Email string `json:"email"`
	} `json:"from"`
	Subject          string `json:"subject"`
	Personalizations []struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
	} `json:"personalizations"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func TestSendGrid_Send(t *testing.T) {
	var (
		gotPath, gotAuth, gotMethod string
		got                         mailRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sink, err := NewSendGrid(SendGridConfig{
		APIKey: "SG.test-key",
		From:   "ddns@example.com",
		To:     "admin@example.com",
		Host:   server.URL,
	}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewSendGrid() error = %v", err)
	}

	lines := []string{"Added home.example.com A 10.0.0.5"}
	if err := sink.Send(context.Background(), "DNS update notification, timestamped: 01/02/26 15:04:05", lines); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/v3/mail/send" {
		t.Errorf("request = %s %s, want POST /v3/mail/send", gotMethod, gotPath)
	}
	if gotAuth != "Bearer SG.test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if got.From.Email != "ddns@example.com" {
		t.Errorf("from = %q", got.From.Email)
	}
	if len(got.Personalizations) != 1 || len(got.Personalizations[0].To) != 1 || got.Personalizations[0].To[0].Email != "admin@example.com" {
		t.Errorf("personalizations = %+v", got.Personalizations)
	}
	if !strings.HasPrefix(got.Subject, "DNS update notification, timestamped: ") {
		t.Errorf("subject = %q", got.Subject)
	}

	contents := make(map[string]string)
	for _, c := range got.Content {
		contents[c.Type] = c.Value
	}
	if contents["text/plain"] != lines[0] {
		t.Errorf("text/plain = %q", contents["text/plain"])
	}
	if contents["text/html"] != "<strong>"+lines[0]+"</strong>" {
		t.Errorf("text/html = %q", contents["text/html"])
	}
}

func TestSendGrid_SendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer server.Close()

	sink, err := NewSendGrid(SendGridConfig{
		APIKey: "SG.bad",
		From:   "ddns@example.com",
		To:     "admin@example.com",
		Host:   server.URL,
	}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}

	err = sink.Send(context.Background(), "subject", []string{"line"})
	if err == nil || !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "bad key") {
		t.Errorf("Send() error = %v, want 401 with body", err)
	}
}
