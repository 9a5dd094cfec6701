package service

import (
	"context"
	"errors"

	"colloquium/internal/dto"
	"colloquium/internal/model"
	"colloquium/internal/repo"
)

func (s *service) Stats(ctx context.Context) dto.Envelope {
	rsvps, err := s.repo.ListRSVPs(ctx)
	if err != nil && !errors.Is(err, repo.ErrTableNotFound) {
		s.log.Error().Err(err).Msg("failed to read rsvps for stats")
		return failure(err)
	}
	tributes, err := s.repo.ListTributes(ctx)
	if err != nil && !errors.Is(err, repo.ErrTableNotFound) {
		s.log.Error().Err(err).Msg("failed to read tributes for stats")
		return failure(err)
	}

	return dto.OK("Stats retrieved", map[string]any{"stats": computeStats(rsvps, tributes)})
}

// computeStats counts a guest only for attending rows.
func computeStats(rsvps []model.RSVP, tributes []model.Tribute) model.Stats {
	var st model.Stats
	st.TotalRSVPs = len(rsvps)
	for _, r := range rsvps {
		if r.IsAttending() {
			st.Attending++
			st.TotalGuests += r.Guests()
		} else {
			st.NotAttending++
		}
	}

	st.TotalTributes = len(tributes)
	for _, t := range tributes {
		if t.Approved == model.TributeApproved {
			st.ApprovedTributes++
		}
	}
	return st
}
