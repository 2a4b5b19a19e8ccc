package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"maritaca/models"

	"github.com/jinzhu/gorm"
)

// ValidationError marks input the store refuses synchronously (missing
// fields, unparseable instants, invalid status). Nothing is persisted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseScheduledAt accepts RFC 3339 or "2006-01-02 15:04:05" (local time)
// and returns the instant.
func ParseScheduledAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, validationErrorf("scheduled_at é obrigatório")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", raw, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, validationErrorf("scheduled_at inválido: %q", raw)
}

// ScheduledMessages is the single source of truth for schedule state. All
// mutation goes through its methods so the status rules hold everywhere:
// pending -> sent|failed only, paused excluded from due-selection, error
// populated exactly on failed.
type ScheduledMessages struct {
	db *gorm.DB
}

func NewScheduledMessages(db *gorm.DB) *ScheduledMessages {
	return &ScheduledMessages{db: db}
}

// Enqueue creates a pending row. Empty tag/tipo fall back to the defaults.
func (s *ScheduledMessages) Enqueue(instance, conversation, body, scheduledAt, tag, tipo string) (*models.ScheduledMessage, error) {
	instance = strings.TrimSpace(instance)
	conversation = strings.TrimSpace(conversation)
	if instance == "" {
		return nil, validationErrorf("instance é obrigatório")
	}
	if conversation == "" {
		return nil, validationErrorf("conversation é obrigatório")
	}
	if strings.TrimSpace(body) == "" {
		return nil, validationErrorf("body é obrigatório")
	}
	when, err := ParseScheduledAt(scheduledAt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(tag) == "" {
		tag = models.SCHEDULED_DEFAULT_TAG
	}
	if strings.TrimSpace(tipo) == "" {
		tipo = models.SCHEDULED_DEFAULT_TIPO
	}

	msg := models.ScheduledMessage{
		InstanceID:   instance,
		Conversation: conversation,
		Body:         body,
		ScheduledAt:  when,
		Status:       models.SCHEDULED_STATUS_PENDING,
		Tag:          strings.TrimSpace(tag),
		Tipo:         strings.TrimSpace(tipo),
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("enqueue scheduled message: %w", err)
	}
	return &msg, nil
}

// FetchDue returns due rows for an instance: pending, not paused,
// scheduled_at <= now, oldest first, capped at limit. Read-only; the poller
// marks outcomes after dispatch.
func (s *ScheduledMessages) FetchDue(instance string, limit int) ([]models.ScheduledMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	var due []models.ScheduledMessage
	err := s.db.
		Where("instance_id = ? AND status = ? AND is_paused = ?", instance, models.SCHEDULED_STATUS_PENDING, false).
		Where("scheduled_at <= ?", time.Now()).
		Order("scheduled_at asc, id asc").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("fetch due: %w", err)
	}
	return due, nil
}

// UpdateStatus records a terminal outcome. Only sent and failed are
// accepted, and only a pending row changes; a row already terminal stays
// exactly as it is (status is monotonic).
func (s *ScheduledMessages) UpdateStatus(id int64, status string, errMsg string) error {
	if status != models.SCHEDULED_STATUS_SENT && status != models.SCHEDULED_STATUS_FAILED {
		return validationErrorf("status inválido: %q", status)
	}

	now := time.Now()
	updates := map[string]any{
		"status":          status,
		"last_attempt_at": &now,
		"error":           nil,
	}
	if status == models.SCHEDULED_STATUS_FAILED {
		if strings.TrimSpace(errMsg) == "" {
			errMsg = "falha no envio"
		}
		updates["error"] = errMsg
	}

	res := s.db.Model(&models.ScheduledMessage{}).
		Where("id = ? AND status = ?", id, models.SCHEDULED_STATUS_PENDING).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update status: %w", res.Error)
	}
	return nil
}

// SetPaused toggles the pause flag. Only pending rows can be (un)paused.
func (s *ScheduledMessages) SetPaused(id int64, paused bool) error {
	res := s.db.Model(&models.ScheduledMessage{}).
		Where("id = ? AND status = ?", id, models.SCHEDULED_STATUS_PENDING).
		Update("is_paused", paused)
	if res.Error != nil {
		return fmt.Errorf("set paused: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return validationErrorf("mensagem %d não existe ou não está pendente", id)
	}
	return nil
}

// Delete removes one row by id, whatever its status.
func (s *ScheduledMessages) Delete(id int64) (int64, error) {
	res := s.db.Where("id = ?", id).Delete(&models.ScheduledMessage{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete scheduled message: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByTag removes every row of the conversation with the tag,
// regardless of status.
func (s *ScheduledMessages) DeleteByTag(instance, conversation, tag string) (int64, error) {
	if strings.TrimSpace(tag) == "" {
		return 0, validationErrorf("tag é obrigatória")
	}
	res := s.db.
		Where("instance_id = ? AND conversation = ? AND tag = ?", instance, conversation, tag).
		Delete(&models.ScheduledMessage{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete by tag: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByTipo removes every row of the conversation with the tipo,
// regardless of status.
func (s *ScheduledMessages) DeleteByTipo(instance, conversation, tipo string) (int64, error) {
	if strings.TrimSpace(tipo) == "" {
		return 0, validationErrorf("tipo é obrigatório")
	}
	res := s.db.
		Where("instance_id = ? AND conversation = ? AND tipo = ?", instance, conversation, tipo).
		Delete(&models.ScheduledMessage{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete by tipo: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkPendingFailed sweeps the conversation's pending rows to failed with
// the given reason. Sent and failed rows are never touched.
func (s *ScheduledMessages) MarkPendingFailed(instance, conversation, reason string) (int64, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "cancelado"
	}
	now := time.Now()
	res := s.db.Model(&models.ScheduledMessage{}).
		Where("instance_id = ? AND conversation = ? AND status = ?", instance, conversation, models.SCHEDULED_STATUS_PENDING).
		Updates(map[string]any{
			"status":          models.SCHEDULED_STATUS_FAILED,
			"error":           reason,
			"last_attempt_at": &now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("mark pending failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// List returns the conversation's rows ordered by scheduled_at. Empty tag
// or tipo means no filter on that label.
func (s *ScheduledMessages) List(instance, conversation, tag, tipo string) ([]models.ScheduledMessage, error) {
	q := s.db.Where("instance_id = ? AND conversation = ?", instance, conversation)
	if strings.TrimSpace(tag) != "" {
		q = q.Where("tag = ?", tag)
	}
	if strings.TrimSpace(tipo) != "" {
		q = q.Where("tipo = ?", tipo)
	}
	var out []models.ScheduledMessage
	if err := q.Order("scheduled_at asc, id asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list scheduled messages: %w", err)
	}
	return out, nil
}

// Get returns one row by id.
func (s *ScheduledMessages) Get(id int64) (*models.ScheduledMessage, error) {
	var msg models.ScheduledMessage
	if err := s.db.First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// Instances returns the distinct instance ids that still have pending rows,
// so the poller only queries tenants with work to do.
func (s *ScheduledMessages) Instances() ([]string, error) {
	var rows []models.ScheduledMessage
	err := s.db.Model(&models.ScheduledMessage{}).
		Where("status = ?", models.SCHEDULED_STATUS_PENDING).
		Select("DISTINCT instance_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.InstanceID)
	}
	return out, nil
}
