package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"colloquium/internal/notify"
	"colloquium/internal/repo"
	"colloquium/internal/service"
)

type discardNotifier struct{ jobs int }

func (d *discardNotifier) Notify(notify.Job) { d.jobs++ }

func newTestRouter(t *testing.T) (*ginext.Engine, *discardNotifier) {
	t.Helper()
	log := zerolog.Nop()
	r, err := repo.NewRepository(repo.NewMemoryStore(), repo.Tables{RSVP: "RSVPs", Tribute: "Tributes"}, &log)
	if err != nil {
		t.Fatal(err)
	}
	n := &discardNotifier{}
	svc := service.NewService(r, n, &log, 0)
	return NewRouters(&Routers{Service: svc, Mode: "test"}), n
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRSVPThenStats(t *testing.T) {
	router, n := newTestRouter(t)

	res := decode(t, do(t, router, http.MethodPost, "/exec?action=rsvp",
		`{"fullName":"Ada Lovelace","email":"ada@example.com","attendance":"yes"}`))
	if res["success"] != true || res["message"] != "RSVP saved" {
		t.Fatalf("unexpected response %v", res)
	}
	id, _ := res["confirmationId"].(string)
	if !regexp.MustCompile(`^COL-[A-Z0-9]{8}$`).MatchString(id) {
		t.Errorf("bad confirmation id %q", id)
	}
	if n.jobs != 1 {
		t.Errorf("expected 1 notification, got %d", n.jobs)
	}

	res = decode(t, do(t, router, http.MethodGet, "/exec?action=getStats", ""))
	stats, _ := res["stats"].(map[string]any)
	if stats["totalRSVPs"] != 1.0 || stats["attending"] != 1.0 || stats["totalGuests"] != 1.0 {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestUnknownAction(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, w := range []*httptest.ResponseRecorder{
		do(t, router, http.MethodPost, "/exec?action=bogus", `{}`),
		do(t, router, http.MethodGet, "/exec?action=bogus", ""),
		do(t, router, http.MethodGet, "/v1/exec?action=bogus", ""),
	} {
		if got := strings.TrimSpace(w.Body.String()); got != `{"success":false,"message":"Unknown action: bogus"}` {
			t.Errorf("unexpected body %s", got)
		}
	}

	res := decode(t, do(t, router, http.MethodGet, "/exec", ""))
	if res["message"] != "Unknown action: " {
		t.Errorf("unexpected message for missing action %v", res["message"])
	}
}

func TestMalformedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	res := decode(t, do(t, router, http.MethodPost, "/exec?action=rsvp", `{"fullName":`))
	if res["success"] != false {
		t.Fatalf("expected failure, got %v", res)
	}
	if msg, _ := res["message"].(string); msg == "" {
		t.Error("expected decoder message")
	}

	// Malformed bodies are reported before the action is looked at.
	res = decode(t, do(t, router, http.MethodPost, "/exec?action=bogus", `not json`))
	if msg, _ := res["message"].(string); strings.HasPrefix(msg, "Unknown action") {
		t.Errorf("parse error should win over unknown action, got %q", msg)
	}
}

func TestNullBodyIsRejected(t *testing.T) {
	router, n := newTestRouter(t)

	for _, action := range []string{"rsvp", "tribute", "updateTribute", "checkIn"} {
		res := decode(t, do(t, router, http.MethodPost, "/exec?action="+action, `null`))
		if res["success"] != false || res["message"] != "Request body must be a JSON object" {
			t.Errorf("%s: unexpected response %v", action, res)
		}
	}

	res := decode(t, do(t, router, http.MethodGet, "/exec?action=getRSVPs", ""))
	if res["message"] != "No RSVPs yet" {
		t.Errorf("null body must not store a row, got %v", res)
	}
	if n.jobs != 0 {
		t.Errorf("expected no notifications, got %d", n.jobs)
	}
}

func TestMissingGuestCountStoresOne(t *testing.T) {
	router, _ := newTestRouter(t)

	decode(t, do(t, router, http.MethodPost, "/exec?action=rsvp", `{"fullName":"Ada","attendance":"yes"}`))
	decode(t, do(t, router, http.MethodPost, "/exec?action=rsvp", `{"fullName":"Bob","attendance":"yes","guestCount":3}`))

	res := decode(t, do(t, router, http.MethodGet, "/exec?action=getRSVPs", ""))
	if res["message"] != "RSVPs retrieved" {
		t.Fatalf("unexpected message %v", res["message"])
	}
	rsvps := res["rsvps"].([]any)
	if len(rsvps) != 2 {
		t.Fatalf("expected 2 rsvps, got %d", len(rsvps))
	}
	first := rsvps[0].(map[string]any)
	second := rsvps[1].(map[string]any)
	if first["Guest Count"] != "1" || first["Checked In"] != "No" {
		t.Errorf("unexpected first rsvp %v", first)
	}
	if second["Guest Count"] != "3" {
		t.Errorf("numeric guest count not stored as text: %v", second["Guest Count"])
	}
}

func TestEmptyReadsBeforeAnySubmission(t *testing.T) {
	router, _ := newTestRouter(t)

	for action, msg := range map[string]string{
		"getRSVPs":            "No RSVPs yet",
		"getTributes":         "No tributes yet",
		"getApprovedTributes": "No tributes yet",
	} {
		res := decode(t, do(t, router, http.MethodGet, "/exec?action="+action, ""))
		if res["success"] != true || res["message"] != msg {
			t.Errorf("%s: unexpected response %v", action, res)
		}
	}
}

func TestTributeModerationFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	decode(t, do(t, router, http.MethodPost, "/exec?action=tribute", `{"tributeAuthor":"Grace","tributeMessage":"Thank you"}`))

	res := decode(t, do(t, router, http.MethodPost, "/exec?action=updateTribute", `{"author":"Grace","approved":"Approved"}`))
	if res["success"] != true || res["message"] != "Status updated to Approved" {
		t.Fatalf("unexpected update response %v", res)
	}

	res = decode(t, do(t, router, http.MethodGet, "/exec?action=getApprovedTributes", ""))
	tributes := res["tributes"].([]any)
	if len(tributes) != 1 {
		t.Fatalf("expected 1 approved tribute, got %d", len(tributes))
	}
	entry := tributes[0].(map[string]any)
	if entry["author"] != "Grace" || entry["message"] != "Thank you" {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["approved"]; ok {
		t.Error("public projection must not expose the status")
	}

	res = decode(t, do(t, router, http.MethodPost, "/exec?action=updateTribute", `{"author":"Grace","approved":"Maybe"}`))
	if res["success"] != false || res["message"] != "Invalid status: Maybe" {
		t.Errorf("unexpected response for bad status %v", res)
	}
}

func TestJSONPCallback(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/exec?action=getStats&callback=handleStats", "")
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("unexpected content type %q", ct)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "handleStats(") || !strings.HasSuffix(body, ")") {
		t.Fatalf("body not wrapped: %s", body)
	}
	var res map[string]any
	if err := json.Unmarshal([]byte(body[len("handleStats("):len(body)-1]), &res); err != nil {
		t.Fatalf("wrapped body is not json: %v", err)
	}
	if res["message"] != "Stats retrieved" {
		t.Errorf("unexpected message %v", res["message"])
	}

	w = do(t, router, http.MethodGet, "/exec?action=getStats", "")
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("unexpected content type without callback %q", ct)
	}
}

func TestCheckInAction(t *testing.T) {
	router, _ := newTestRouter(t)

	res := decode(t, do(t, router, http.MethodPost, "/v1/exec?action=rsvp", `{"fullName":"Ada"}`))
	id := res["confirmationId"].(string)

	res = decode(t, do(t, router, http.MethodPost, "/exec?action=checkIn", `{"confirmationId":"`+id+`"}`))
	if res["success"] != true {
		t.Fatalf("check-in failed: %v", res)
	}
	res = decode(t, do(t, router, http.MethodGet, "/exec?action=getRSVPs", ""))
	if got := res["rsvps"].([]any)[0].(map[string]any)["Checked In"]; got != "Yes" {
		t.Errorf("Checked In = %v", got)
	}
}

func TestHealthAndQR(t *testing.T) {
	router, _ := newTestRouter(t)

	res := decode(t, do(t, router, http.MethodGet, "/healthz", ""))
	if res["success"] != true || res["message"] != "ok" {
		t.Errorf("unexpected health response %v", res)
	}

	w := do(t, router, http.MethodGet, "/qr?data=COL-ABCDEF12&size=128", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected qr response %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("qr body is not a png")
	}

	res = decode(t, do(t, router, http.MethodGet, "/qr", ""))
	if res["success"] != false || res["message"] != "Missing data" {
		t.Errorf("unexpected response without data %v", res)
	}
}
