package adk_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ledgerline/docket/internal/adk"
)

func testConfig(baseURL string) *adk.Config {
	return &adk.Config{
		BaseURL: baseURL,
		AppName: "legal_intake",
		UserID:  "intake_service",
		Timeout: "5s",
	}
}

func eventList(texts ...string) []byte {
	events := make([]map[string]any, 0, len(texts))
	for _, text := range texts {
		events = append(events, map[string]any{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		})
	}
	data, _ := json.Marshal(events)
	return data
}

func TestCreateSession(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := adk.New(testConfig(srv.URL), slog.Default())

	if err := client.CreateSession(t.Context(), "sess-1"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method: got %s, want POST", gotMethod)
	}
	if gotPath != "/apps/legal_intake/users/intake_service/sessions/sess-1" {
		t.Errorf("path: got %s", gotPath)
	}
}

func TestCreateSessionConflictIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := adk.New(testConfig(srv.URL), slog.Default())

	if err := client.CreateSession(t.Context(), "sess-1"); err != nil {
		t.Fatalf("CreateSession() on 409 = %v, want nil", err)
	}
}

func TestCreateSessionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := adk.New(testConfig(srv.URL), slog.Default())

	err := client.CreateSession(t.Context(), "sess-1")
	if !errors.Is(err, adk.ErrRuntimeUnreachable) {
		t.Fatalf("error = %v, want ErrRuntimeUnreachable", err)
	}
}

func TestDeleteSession(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := adk.New(testConfig(srv.URL), slog.Default())

	if err := client.DeleteSession(t.Context(), "sess-1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method: got %s, want DELETE", gotMethod)
	}
}

func TestDeleteSessionMissingIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := adk.New(testConfig(srv.URL), slog.Default())

	if err := client.DeleteSession(t.Context(), "sess-1"); err != nil {
		t.Fatalf("DeleteSession() on 404 = %v, want nil", err)
	}
}

func TestRun(t *testing.T) {
	var gotBody struct {
		AppName    string `json:"app_name"`
		UserID     string `json:"user_id"`
		SessionID  string `json:"session_id"`
		NewMessage struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"new_message"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/run" {
			t.Errorf("path: got %s, want /run", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write(eventList("routing to reviewer", "The documents support the claim. SUFFICIENT DATA"))
	}))
	defer srv.Close()

	client := adk.New(testConfig(srv.URL), slog.Default())

	text, err := client.Run(t.Context(), "sess-1", "Sort_Initial: review the attached evidence")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if text != "The documents support the claim. SUFFICIENT DATA" {
		t.Errorf("text: got %q", text)
	}
	if gotBody.AppName != "legal_intake" {
		t.Errorf("app_name: got %s", gotBody.AppName)
	}
	if gotBody.UserID != "intake_service" {
		t.Errorf("user_id: got %s", gotBody.UserID)
	}
	if gotBody.SessionID != "sess-1" {
		t.Errorf("session_id: got %s", gotBody.SessionID)
	}
	if gotBody.NewMessage.Role != "user" {
		t.Errorf("role: got %s", gotBody.NewMessage.Role)
	}
	if len(gotBody.NewMessage.Parts) != 1 || gotBody.NewMessage.Parts[0].Text != "Sort_Initial: review the attached evidence" {
		t.Errorf("parts: got %+v", gotBody.NewMessage.Parts)
	}
}

func TestRunSkipsTrailingEmptyEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(eventList("final summary text", "", "  "))
	}))
	defer srv.Close()

	client := adk.New(testConfig(srv.URL), slog.Default())

	text, err := client.Run(t.Context(), "sess-1", "prompt")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if text != "final summary text" {
		t.Errorf("text: got %q", text)
	}
}

func TestRunNoOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := adk.New(testConfig(srv.URL), slog.Default())

	_, err := client.Run(t.Context(), "sess-1", "prompt")
	if !errors.Is(err, adk.ErrNoOutput) {
		t.Fatalf("error = %v, want ErrNoOutput", err)
	}
}

func TestRunRuntimeDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := adk.New(testConfig(srv.URL), slog.Default())

	_, err := client.Run(t.Context(), "sess-1", "prompt")
	if !errors.Is(err, adk.ErrRuntimeUnreachable) {
		t.Fatalf("error = %v, want ErrRuntimeUnreachable", err)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unreachable maps to 503", adk.ErrRuntimeUnreachable, http.StatusServiceUnavailable},
		{"no output maps to 502", adk.ErrNoOutput, http.StatusBadGateway},
		{"unknown maps to 500", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adk.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := adk.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("base_url: got %s", cfg.BaseURL)
	}
	if cfg.AppName != "legal_intake" {
		t.Errorf("app_name: got %s", cfg.AppName)
	}
	if cfg.UserID != "intake_service" {
		t.Errorf("user_id: got %s", cfg.UserID)
	}
}
