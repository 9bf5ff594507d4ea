package model

import (
	"time"

	"gorm.io/datatypes"
)

type LoginAttempt struct {
	ID          uint      `gorm:"primaryKey"`
	Email       string    `gorm:"type:varchar(255);not null;index"`
	IPAddress   string    `gorm:"type:varchar(64)"`
	Success     bool      `gorm:"not null"`
	AttemptedAt time.Time `gorm:"not null;index"`
}

func (LoginAttempt) TableName() string {
	return "login_attempts"
}

// RefreshToken stores only the SHA-256 of the issued token.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	TokenHash string    `gorm:"type:char(64);not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	Revoked   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

type AuditEventType string

const (
	AuditLoginSuccess       AuditEventType = "LOGIN_SUCCESS"
	AuditLoginFailure       AuditEventType = "LOGIN_FAILURE"
	AuditLogout             AuditEventType = "LOGOUT"
	AuditRegister           AuditEventType = "REGISTER"
	AuditTokenRefresh       AuditEventType = "TOKEN_REFRESH"
	AuditAccountLocked      AuditEventType = "ACCOUNT_LOCKED"
	AuditRateLimitHit       AuditEventType = "RATE_LIMIT_HIT"
	AuditUnauthorizedAccess AuditEventType = "UNAUTHORIZED_ACCESS"
	AuditProfileUpdate      AuditEventType = "PROFILE_UPDATE"
)

type SecurityAuditLog struct {
	ID        uint           `gorm:"primaryKey"`
	EventType AuditEventType `gorm:"type:varchar(32);not null;index"`
	UserID    *uint          `gorm:"index"`
	Email     string         `gorm:"type:varchar(255)"`
	IPAddress string         `gorm:"type:varchar(64)"`
	UserAgent string         `gorm:"type:text"`
	Path      string         `gorm:"type:varchar(255)"`
	Message   string         `gorm:"type:text"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (SecurityAuditLog) TableName() string {
	return "security_audit_logs"
}
