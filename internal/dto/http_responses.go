package dto

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"sort"

	"github.com/wb-go/wbf/ginext"
)

const (
	ContentTypeJSON       = "application/json; charset=utf-8"
	ContentTypeJavaScript = "application/javascript; charset=utf-8"
)

// Envelope is the single response shape: {success, message, ...extra}.
type Envelope struct {
	Success bool
	Message string
	Extra   map[string]any
}

func OK(message string, extra map[string]any) Envelope {
	return Envelope{Success: true, Message: message, Extra: extra}
}

func Fail(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

// MarshalJSON flattens Extra next to success and message. Extra keys are
// emitted in sorted order and may not shadow the two fixed keys.
func (e Envelope) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"success":`)
	if e.Success {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
	buf.WriteString(`,"message":`)
	msg, err := json.Marshal(e.Message)
	if err != nil {
		return nil, err
	}
	buf.Write(msg)

	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		if k == "success" || k == "message" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Extra[k])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Respond writes the envelope as JSON. Envelopes always travel with 200:
// failures are reported in the body, never through the status line.
func Respond(c *ginext.Context, env Envelope) {
	c.JSON(http.StatusOK, env)
}

// RespondJSONP wraps the envelope as callback(<json>) when callback is set,
// so static pages can read cross-origin without CORS.
func RespondJSONP(c *ginext.Context, env Envelope, callback string) {
	if callback == "" {
		Respond(c, env)
		return
	}
	body, err := json.Marshal(env)
	if err != nil {
		body, _ = json.Marshal(Fail(err.Error()))
	}
	var buf bytes.Buffer
	buf.WriteString(template.JSEscapeString(callback))
	buf.WriteByte('(')
	buf.Write(body)
	buf.WriteByte(')')
	c.Data(http.StatusOK, ContentTypeJavaScript, buf.Bytes())
}
