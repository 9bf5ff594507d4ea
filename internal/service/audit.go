package service

import (
	"context"
	"encoding/json"
	"time"

	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"

	"gorm.io/datatypes"
)

// AuditEvent is one security-relevant occurrence.
type AuditEvent struct {
	Type     model.AuditEventType
	UserID   *uint
	Email    string
	Client   dto.ClientInfo
	Message  string
	Metadata map[string]interface{}
}

// AuditService appends security events to the audit log. Writes are best
// effort and never fail the calling request.
type AuditService interface {
	Log(ctx context.Context, event AuditEvent)
}

type auditService struct {
	log          *logger.Logger
	auditLogRepo repository.AuditLogRepository
	async        bool
}

func NewAuditService(log *logger.Logger, auditLogRepo repository.AuditLogRepository) AuditService {
	return &auditService{log: log, auditLogRepo: auditLogRepo, async: true}
}

var warnAuditEvents = map[model.AuditEventType]bool{
	model.AuditLoginFailure:       true,
	model.AuditAccountLocked:      true,
	model.AuditRateLimitHit:       true,
	model.AuditUnauthorizedAccess: true,
}

func (a *auditService) Log(ctx context.Context, event AuditEvent) {
	fields := []interface{}{
		"event_type", string(event.Type),
		"email", event.Email,
		"ip", event.Client.IPAddress,
		"path", event.Client.Path,
		"message", event.Message,
	}
	if event.UserID != nil {
		fields = append(fields, "user_id", *event.UserID)
	}
	sugar := a.log.FromContext(ctx).Logger.Sugar()
	if warnAuditEvents[event.Type] {
		sugar.Warnw("[SECURITY] "+string(event.Type), fields...)
	} else {
		sugar.Infow("[SECURITY] "+string(event.Type), fields...)
	}

	entry := &model.SecurityAuditLog{
		EventType: event.Type,
		UserID:    event.UserID,
		Email:     event.Email,
		IPAddress: event.Client.IPAddress,
		UserAgent: event.Client.UserAgent,
		Path:      event.Client.Path,
		Message:   event.Message,
	}
	if len(event.Metadata) > 0 {
		if raw, err := json.Marshal(event.Metadata); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}

	write := func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := a.auditLogRepo.Create(writeCtx, entry); err != nil {
			a.log.Warn("Failed to write security audit log",
				logger.StringField("event_type", string(event.Type)),
				logger.StringField("email", event.Email),
				logger.ErrorField(err),
			)
		}
	}
	if a.async {
		utils.GoSafe(a.log, write)
		return
	}
	write()
}
