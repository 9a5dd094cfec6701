package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"colloquium/internal/mailer"
	"colloquium/internal/repo"
)

const (
	DriverMemory   = "memory"
	DriverXLSX     = "xlsx"
	DriverSheets   = "sheets"
	DriverPostgres = "postgres"

	NotifyDirect = "direct"
	NotifyQueue  = "queue"
)

type ServerConfig struct {
	Port string
	Mode string
}

type StorageConfig struct {
	Driver          string
	XLSXPath        string
	SpreadsheetID   string
	CredentialsFile string
	Migrations      string
	Tables          repo.Tables

	// RollbackOnShutdown runs the down migrations on exit (throwaway databases only).
	RollbackOnShutdown bool
}

type NotifyConfig struct {
	Mode    string
	Timeout time.Duration
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

func str(cfg *config.Config, key, def string) string {
	if v := cfg.GetString(key); v != "" {
		return v
	}
	return def
}

func num(cfg *config.Config, key string, def int) int {
	if v := cfg.GetInt(key); v > 0 {
		return v
	}
	return def
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	sc := ServerConfig{
		Port: str(cfg, "server.port", "8080"),
		Mode: str(cfg, "server.mode", "release"),
	}
	log.Info().Str("port", sc.Port).Str("mode", sc.Mode).Msg("server config loaded")
	return sc
}

func BuildStorageConfig(cfg *config.Config, log *zerolog.Logger) (StorageConfig, error) {
	sc := StorageConfig{
		Driver:          str(cfg, "storage.driver", DriverMemory),
		XLSXPath:        str(cfg, "storage.xlsx_path", "colloquium.xlsx"),
		SpreadsheetID:   cfg.GetString("storage.sheets.spreadsheet_id"),
		CredentialsFile: cfg.GetString("storage.sheets.credentials_file"),
		Migrations:      str(cfg, "storage.postgres.migrations", "migrations/postgres"),
		Tables: repo.Tables{
			RSVP:    str(cfg, "tables.rsvp", "RSVPs"),
			Tribute: str(cfg, "tables.tribute", "Tributes"),
		},
		RollbackOnShutdown: cfg.GetBool("storage.postgres.rollback_on_shutdown"),
	}

	switch sc.Driver {
	case DriverMemory, DriverXLSX, DriverPostgres:
	case DriverSheets:
		if sc.SpreadsheetID == "" {
			return sc, fmt.Errorf("storage.sheets.spreadsheet_id is required for the sheets driver")
		}
	default:
		return sc, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}

	log.Info().Str("driver", sc.Driver).Msg("storage config loaded")
	return sc, nil
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("storage.postgres.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("storage.postgres.master_dsn is required")
	}
	slaveDSNs := cfg.GetStringSlice("storage.postgres.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    num(cfg, "storage.postgres.max_open_conns", 10),
		MaxIdleConns:    num(cfg, "storage.postgres.max_idle_conns", 5),
		ConnMaxLifetime: cfg.GetDuration("storage.postgres.conn_max_lifetime"),
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = 30 * time.Minute
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database config loaded")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildSMTPConfig(cfg *config.Config) mailer.SMTPConfig {
	return mailer.SMTPConfig{
		Host:        cfg.GetString("mail.smtp_host"),
		Port:        num(cfg, "mail.smtp_port", 587),
		Username:    cfg.GetString("mail.smtp_username"),
		Password:    cfg.GetString("mail.smtp_password"),
		FromAddress: cfg.GetString("mail.from_address"),
	}
}

func BuildMailConfig(cfg *config.Config) mailer.Config {
	event := mailer.EventDetails{
		Name:      str(cfg, "event.name", "Colloquium"),
		Honoree:   cfg.GetString("event.honoree"),
		Date:      cfg.GetString("event.date"),
		Time:      cfg.GetString("event.time"),
		Venue:     cfg.GetString("event.venue"),
		Address:   cfg.GetString("event.address"),
		DressCode: cfg.GetString("event.dress_code"),
		Code:      cfg.GetString("event.code"),
	}
	return mailer.Config{
		Event: event,
		QR: mailer.QRConfig{
			URLTemplate: str(cfg, "qr.url_template", "https://api.qrserver.com/v1/create-qr-code/?size={size}x{size}&data={data}"),
			Payload:     str(cfg, "qr.payload", mailer.QRPayloadConfirmationID),
			Size:        num(cfg, "qr.size", 200),
		},
		SenderName:          str(cfg, "mail.sender_name", event.Name),
		OrganizerAddress:    cfg.GetString("mail.organizer_address"),
		ConfirmationSubject: str(cfg, "mail.confirmation_subject", "RSVP Confirmed - "+event.Name),
		TributeSubject:      str(cfg, "mail.tribute_subject", "New Tribute Submitted - "+event.Name),
	}
}

func BuildNotifyConfig(cfg *config.Config, log *zerolog.Logger) (NotifyConfig, error) {
	nc := NotifyConfig{
		Mode:    str(cfg, "notify.mode", NotifyDirect),
		Timeout: cfg.GetDuration("notify.timeout"),
	}
	if nc.Timeout <= 0 {
		nc.Timeout = 15 * time.Second
	}
	if nc.Mode != NotifyDirect && nc.Mode != NotifyQueue {
		return nc, fmt.Errorf("unknown notify mode %q", nc.Mode)
	}
	log.Info().Str("mode", nc.Mode).Dur("timeout", nc.Timeout).Msg("notify config loaded")
	return nc, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: str(cfg, "rabbit.exchange", "colloquium"),
		Queue:    str(cfg, "rabbit.queue", "colloquium.notifications"),
	}
	if rc.Url == "" {
		return rc, fmt.Errorf("rabbit.url is required for queued notifications")
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit config loaded")
	return rc, nil
}
