package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusAccepted).
		Header("X-Custom", "value").
		BodyHTML("<p>ok</p>").
		Write(w)

	if w.Code != http.StatusAccepted {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header not set")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should be absent without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerTransactionCreated("abc", "EXPENSE", "2024-03-01").
		TriggerFormReset().
		TriggerNotification(NotificationSuccess, "Saved", 3000).
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}
	for _, part := range []string{
		`"transaction:created"`,
		`"id":"abc"`,
		`"type":"EXPENSE"`,
		`"date":"2024-03-01"`,
		`"form:reset"`,
		`"show-notification"`,
		`"type":"success"`,
		`"duration":3000`,
	} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestErrorResponsesEscapeMessage(t *testing.T) {
	tests := []struct {
		name    string
		builder *HTMXResponseBuilder
		code    int
	}{
		{"bad request", BadRequestError("<script>x</script>"), http.StatusBadRequest},
		{"internal", InternalServerError("<script>x</script>"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.code {
				t.Errorf("Status = %d, want %d", w.Code, tt.code)
			}
			body := w.Body.String()
			if strings.Contains(body, "<script>") {
				t.Errorf("message not escaped: %s", body)
			}
			if !strings.Contains(body, `class="error"`) {
				t.Errorf("missing error class: %s", body)
			}
			if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"error"`) {
				t.Errorf("missing error notification: %s", w.Header().Get("HX-Trigger"))
			}
		})
	}
}

func TestSuccessResponse(t *testing.T) {
	w := httptest.NewRecorder()
	SuccessResponse("Income saved & stored").Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Income saved &amp; stored") {
		t.Errorf("Body = %s", w.Body.String())
	}
}
