package models

import "time"

/************************************************
/**** MARK: EVENT STATUS ****/
/************************************************/
const EVENT_STATUS_DONE = "done"
const EVENT_STATUS_FAILED = "failed"

// Event é o registro de auditoria de um flush do agregador: o texto composto
// que entrou, a resposta gerada e o desfecho. O agregado em memória some no
// flush, então este é o único rastro durável de uma falha de dispatch.
type Event struct {
	ID           int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	InstanceID   string     `gorm:"not null;index" json:"instance_id"`
	Conversation string     `gorm:"not null;index" json:"conversation"`
	Text         string     `gorm:"type:text" json:"text"` // composto enviado ao responder
	ReplyText    string     `gorm:"type:text" json:"reply_text"`
	Status       string     `gorm:"not null;index" json:"status"`
	Error        string     `gorm:"type:text" json:"error"`
	ProcessedAt  *time.Time `json:"processed_at"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}
