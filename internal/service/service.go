package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"colloquium/internal/dto"
	"colloquium/internal/notify"
	"colloquium/internal/repo"
	"colloquium/pkg/validator"
)

type Service interface {
	Write(ctx *ginext.Context)
	Read(ctx *ginext.Context)
	Health(ctx *ginext.Context)
	QRCode(ctx *ginext.Context)
}

type service struct {
	repo     repo.Repository
	notifier notify.Notifier
	log      *zerolog.Logger
	qrSize   int
}

func NewService(repo repo.Repository, notifier notify.Notifier, logger *zerolog.Logger, qrSize int) Service {
	if qrSize <= 0 {
		qrSize = defaultQRSize
	}
	return &service{
		repo:     repo,
		notifier: notifier,
		log:      logger,
		qrSize:   qrSize,
	}
}

func unknownAction(action string) dto.Envelope {
	return dto.Fail("Unknown action: " + action)
}

// failure turns a store or validation error into the envelope message.
func failure(err error) dto.Envelope {
	var fe *validator.FieldError
	if errors.As(err, &fe) && fe.Tag == "tribute_status" {
		return dto.Fail(fmt.Sprintf("Invalid status: %v", fe.Value))
	}
	return dto.Fail(err.Error())
}
