package service

import (
	"context"
	"errors"

	"colloquium/internal/dto"
	"colloquium/internal/model"
	"colloquium/internal/notify"
	"colloquium/internal/repo"
	"colloquium/pkg/validator"
)

// tributeEntry is the admin projection; approvedEntry is what the public
// wall sees.
type tributeEntry struct {
	ID       string              `json:"id"`
	Author   string              `json:"author"`
	Message  string              `json:"message"`
	Approved model.TributeStatus `json:"approved"`
}

type approvedEntry struct {
	Author  string `json:"author"`
	Message string `json:"message"`
}

func (s *service) SubmitTribute(ctx context.Context, req dto.TributeRequest) dto.Envelope {
	t := model.Tribute{
		ID:             model.NewTributeID(),
		Author:         req.TributeAuthor.Or(model.DefaultAuthor),
		Message:        req.TributeMessage.String(),
		Approved:       model.TributePending,
		IncludedInBook: model.FlagNo,
	}

	if err := s.repo.CreateTribute(ctx, &t); err != nil {
		s.log.Error().Err(err).Msg("failed to save tribute")
		return failure(err)
	}

	s.log.Info().Str("tribute_id", t.ID).Str("author", t.Author).Msg("tribute submitted")

	s.notifier.Notify(notify.TributeNotice(t))

	return dto.OK("Tribute submitted", nil)
}

func (s *service) UpdateTributeStatus(ctx context.Context, req dto.UpdateTributeRequest) dto.Envelope {
	if err := validator.Validate(ctx, req); err != nil {
		return failure(err)
	}

	sel := repo.TributeSelector{ID: req.ID, Author: req.Author}
	status := model.TributeStatus(req.Approved)

	t, err := s.repo.UpdateTributeStatus(ctx, sel, status)
	switch {
	case errors.Is(err, repo.ErrTableNotFound):
		return dto.Fail("Tributes sheet not found")
	case errors.Is(err, repo.ErrTributeNotFound):
		return dto.Fail("Tribute not found for: " + sel.String())
	case err != nil:
		s.log.Error().Err(err).Str("tribute", sel.String()).Msg("failed to update tribute status")
		return failure(err)
	}

	s.log.Info().
		Str("tribute_id", t.ID).
		Str("author", t.Author).
		Str("status", string(status)).
		Msg("tribute status updated")

	return dto.OK("Status updated to "+string(status), nil)
}

func (s *service) ListTributes(ctx context.Context) dto.Envelope {
	tributes, err := s.repo.ListTributes(ctx)
	if errors.Is(err, repo.ErrTableNotFound) {
		return dto.OK("No tributes yet", map[string]any{"tributes": []tributeEntry{}})
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list tributes")
		return failure(err)
	}

	out := make([]tributeEntry, 0, len(tributes))
	for _, t := range tributes {
		status := t.Approved
		if status == "" {
			status = model.TributePending
		}
		out = append(out, tributeEntry{ID: t.ID, Author: t.Author, Message: t.Message, Approved: status})
	}
	return dto.OK("All tributes retrieved", map[string]any{"tributes": out})
}

func (s *service) ListApprovedTributes(ctx context.Context) dto.Envelope {
	tributes, err := s.repo.ListTributes(ctx)
	if errors.Is(err, repo.ErrTableNotFound) {
		return dto.OK("No tributes yet", map[string]any{"tributes": []approvedEntry{}})
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list approved tributes")
		return failure(err)
	}

	out := make([]approvedEntry, 0, len(tributes))
	for _, t := range tributes {
		if t.Approved == model.TributeApproved {
			out = append(out, approvedEntry{Author: t.Author, Message: t.Message})
		}
	}
	return dto.OK("Approved tributes retrieved", map[string]any{"tributes": out})
}
