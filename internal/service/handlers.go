package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"
	"github.com/wb-go/wbf/ginext"

	"colloquium/internal/dto"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024

	errNullBody = "Request body must be a JSON object"
)

// Write handles POST /exec?action=... . The body is parsed before the
// action is looked at, so a malformed body is reported even for unknown
// actions. An empty body counts as {}; a literal null is rejected.
func (s *service) Write(ctx *ginext.Context) {
	action := ctx.Query("action")

	body, err := ctx.GetRawData()
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("failed to read request body")
		dto.Respond(ctx, dto.Fail(err.Error()))
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("malformed request body")
		dto.Respond(ctx, dto.Fail(err.Error()))
		return
	}
	if parsed == nil {
		s.log.Warn().Str("action", action).Msg("null request body")
		dto.Respond(ctx, dto.Fail(errNullBody))
		return
	}

	dto.Respond(ctx, s.dispatchWrite(ctx.Request.Context(), action, body))
}

func (s *service) dispatchWrite(ctx context.Context, action string, body []byte) dto.Envelope {
	switch action {
	case "rsvp":
		var req dto.RSVPRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return failure(err)
		}
		return s.SubmitRSVP(ctx, req)
	case "tribute":
		var req dto.TributeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return failure(err)
		}
		return s.SubmitTribute(ctx, req)
	case "updateTribute":
		var req dto.UpdateTributeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return failure(err)
		}
		return s.UpdateTributeStatus(ctx, req)
	case "checkIn":
		var req dto.CheckInRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return failure(err)
		}
		return s.CheckIn(ctx, req)
	default:
		return unknownAction(action)
	}
}

// Read handles GET /exec?action=...[&callback=fn].
func (s *service) Read(ctx *ginext.Context) {
	rctx := ctx.Request.Context()

	var env dto.Envelope
	switch action := ctx.Query("action"); action {
	case "getRSVPs":
		env = s.ListRSVPs(rctx)
	case "getTributes":
		env = s.ListTributes(rctx)
	case "getApprovedTributes":
		env = s.ListApprovedTributes(rctx)
	case "getStats":
		env = s.Stats(rctx)
	default:
		env = unknownAction(action)
	}

	dto.RespondJSONP(ctx, env, ctx.Query("callback"))
}

func (s *service) Health(ctx *ginext.Context) {
	dto.Respond(ctx, dto.OK("ok", nil))
}

// QRCode renders data as a PNG so qr.url_template can point at this service.
func (s *service) QRCode(ctx *ginext.Context) {
	data := ctx.Query("data")
	if data == "" {
		dto.Respond(ctx, dto.Fail("Missing data"))
		return
	}

	size := s.qrSize
	if raw := ctx.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			dto.Respond(ctx, dto.Fail("Invalid size: "+raw))
			return
		}
		size = min(n, maxQRSize)
	}

	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to render qr code")
		dto.Respond(ctx, dto.Fail(err.Error()))
		return
	}
	ctx.Data(http.StatusOK, "image/png", png)
}
