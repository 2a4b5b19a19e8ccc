package models

import "time"

/************************************************
/**** MARK: SCHEDULED MESSAGE STATUS ****/
/************************************************/
const SCHEDULED_STATUS_PENDING = "pending"
const SCHEDULED_STATUS_SENT = "sent"
const SCHEDULED_STATUS_FAILED = "failed"

const SCHEDULED_DEFAULT_TAG = "default"
const SCHEDULED_DEFAULT_TIPO = "followup"

// ScheduledMessage é um envio futuro (follow-up, lembrete etc).
// Status é terminal: pending -> sent ou pending -> failed, nunca volta.
// IsPaused tira a linha da seleção de vencidos sem mudar o status.
type ScheduledMessage struct {
	ID            int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	InstanceID    string     `gorm:"not null;index" json:"instance_id"`
	Conversation  string     `gorm:"not null;index" json:"conversation"` // telefone/JID do destinatário
	Body          string     `gorm:"type:text;not null" json:"body"`
	ScheduledAt   time.Time  `gorm:"not null;index" json:"scheduled_at"`
	Status        string     `gorm:"not null;default:'pending';index" json:"status"`
	LastAttemptAt *time.Time `json:"last_attempt_at"`
	Error         *string    `gorm:"type:text" json:"error"` // non-nil somente quando failed
	IsPaused      bool       `gorm:"not null;default:false" json:"is_paused"`
	Tag           string     `gorm:"not null;default:'default';index" json:"tag"`
	Tipo          string     `gorm:"not null;default:'followup';index" json:"tipo"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}
