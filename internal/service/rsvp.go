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

func (s *service) SubmitRSVP(ctx context.Context, req dto.RSVPRequest) dto.Envelope {
	rsvp := model.RSVP{
		ConfirmationID:      model.NewConfirmationID(),
		FullName:            req.FullName.String(),
		Email:               req.Email.String(),
		Phone:               req.Phone.String(),
		Organization:        req.Organization.String(),
		Designation:         req.Designation.String(),
		Attendance:          req.Attendance.String(),
		GuestCount:          req.GuestCount.Or(model.DefaultGuests),
		DietaryRequirements: req.DietaryRequirements.String(),
		CheckedIn:           model.FlagNo,
	}

	if err := s.repo.CreateRSVP(ctx, &rsvp); err != nil {
		s.log.Error().Err(err).Msg("failed to save rsvp")
		return failure(err)
	}

	s.log.Info().
		Str("confirmation_id", rsvp.ConfirmationID).
		Str("attendance", rsvp.Attendance).
		Msg("rsvp saved")

	s.notifier.Notify(notify.Confirmation(rsvp))

	return dto.OK("RSVP saved", map[string]any{"confirmationId": rsvp.ConfirmationID})
}

func (s *service) CheckIn(ctx context.Context, req dto.CheckInRequest) dto.Envelope {
	if err := validator.Validate(ctx, req); err != nil {
		return failure(err)
	}

	rsvp, err := s.repo.CheckInRSVP(ctx, req.ConfirmationID)
	switch {
	case errors.Is(err, repo.ErrTableNotFound):
		return dto.Fail("RSVPs sheet not found")
	case errors.Is(err, repo.ErrRSVPNotFound):
		return dto.Fail("RSVP not found for: " + req.ConfirmationID)
	case errors.Is(err, repo.ErrAlreadyCheckedIn):
		return dto.Fail("Already checked in: " + req.ConfirmationID)
	case err != nil:
		s.log.Error().Err(err).Str("confirmation_id", req.ConfirmationID).Msg("failed to check in")
		return failure(err)
	}

	s.log.Info().Str("confirmation_id", rsvp.ConfirmationID).Msg("guest checked in")
	return dto.OK("Checked in", map[string]any{
		"confirmationId": rsvp.ConfirmationID,
		"fullName":       rsvp.FullName,
	})
}

func (s *service) ListRSVPs(ctx context.Context) dto.Envelope {
	rsvps, err := s.repo.ListRSVPs(ctx)
	if errors.Is(err, repo.ErrTableNotFound) {
		return dto.OK("No RSVPs yet", map[string]any{"rsvps": []model.RSVP{}})
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list rsvps")
		return failure(err)
	}
	return dto.OK("RSVPs retrieved", map[string]any{"rsvps": rsvps})
}
