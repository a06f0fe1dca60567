package sms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bdafahim/OmniAssist/internal/dialogue"
)

type stubEngine struct {
	reply string
	err   error
	last  dialogue.TurnRequest
	calls int
}

func (s *stubEngine) HandleTurn(_ context.Context, req dialogue.TurnRequest) (string, error) {
	s.calls++
	s.last = req
	return s.reply, s.err
}

func postForm(t *testing.T, handler http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestWebhookRepliesWithTwiML(t *testing.T) {
	engine := &stubEngine{reply: "We are open Monday-Sunday: 11am-10pm."}
	h := NewHandler(engine, "restaurant", "", nil)

	rec := postForm(t, h.Webhook, url.Values{
		"Body": {"What are your hours?"},
		"From": {"+1 (555) 123-4567"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Response><Message>We are open Monday-Sunday: 11am-10pm.</Message></Response>") {
		t.Fatalf("unexpected twiml: %s", body)
	}
	if engine.last.SessionKey != "+15551234567" {
		t.Fatalf("session key = %q, want normalized From", engine.last.SessionKey)
	}
	if engine.last.Channel != "sms" || engine.last.BusinessType != "restaurant" {
		t.Fatalf("unexpected turn request: %+v", engine.last)
	}
}

func TestWebhookEscapesReply(t *testing.T) {
	engine := &stubEngine{reply: `dinner & drinks <today>`}
	h := NewHandler(engine, "restaurant", "", nil)

	rec := postForm(t, h.Webhook, url.Values{"Body": {"menu"}, "From": {"+15550001111"}})
	body := rec.Body.String()
	if !strings.Contains(body, "dinner &amp; drinks &lt;today&gt;") {
		t.Fatalf("reply not escaped: %s", body)
	}
}

func TestWebhookMissingFrom(t *testing.T) {
	engine := &stubEngine{reply: "hi"}
	h := NewHandler(engine, "restaurant", "", nil)

	rec := postForm(t, h.Webhook, url.Values{"Body": {"hello"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if engine.calls != 0 {
		t.Fatal("engine should not run without a sender")
	}
}

func TestWebhookEngineFailure(t *testing.T) {
	engine := &stubEngine{err: errors.New("store down")}
	h := NewHandler(engine, "restaurant", "", nil)

	rec := postForm(t, h.Webhook, url.Values{"Body": {"hello"}, "From": {"+15550001111"}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestWebhookSignatureValidation(t *testing.T) {
	const authToken = "secret-token"
	engine := &stubEngine{reply: "hi"}
	h := NewHandler(engine, "restaurant", authToken, nil)

	form := url.Values{"Body": {"hello"}, "From": {"+15550001111"}}
	makeReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "https://example.com/api/v1/sms", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	t.Run("missing signature", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Webhook(rec, makeReq())
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong signature", func(t *testing.T) {
		req := makeReq()
		req.Header.Set("X-Twilio-Signature", "bogus")
		rec := httptest.NewRecorder()
		h.Webhook(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid signature", func(t *testing.T) {
		req := makeReq()
		payload := buildSignaturePayload("https://example.com/api/v1/sms", form)
		req.Header.Set("X-Twilio-Signature", computeSignature(payload, authToken))
		rec := httptest.NewRecorder()
		h.Webhook(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})
}

func TestStatus(t *testing.T) {
	h := NewHandler(&stubEngine{}, "restaurant", "", nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sms/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "SMS endpoint active") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 123-4567", "+15551234567"},
		{" 5551234567 ", "+5551234567"},
		{"", ""},
		{"no digits", ""},
	}
	for _, tt := range tests {
		if got := NormalizeE164(tt.in); got != tt.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
