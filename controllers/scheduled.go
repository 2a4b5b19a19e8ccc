package controllers

import (
	"net/http"
	"strings"

	dbpkg "maritaca/db"
	"maritaca/store"
	"maritaca/tools"

	"github.com/gin-gonic/gin"
)

func scheduledStore(c *gin.Context) (*store.ScheduledMessages, bool) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return nil, false
	}
	return store.NewScheduledMessages(db), true
}

func respondStoreError(c *gin.Context, err error) {
	if store.IsValidation(err) {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondError(c, err.Error(), http.StatusInternalServerError)
}

type CreateScheduledMessageInput struct {
	Instance     string `json:"instance" binding:"required"`
	Conversation string `json:"conversation" binding:"required"`
	Body         string `json:"body" binding:"required"`
	ScheduledAt  string `json:"scheduled_at" binding:"required"`
	Tag          string `json:"tag"`
	Tipo         string `json:"tipo"`
}

// POST /api/scheduled-messages
func CreateScheduledMessage(c *gin.Context) {
	var input CreateScheduledMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	phone, err := tools.NormalizeWhatsAppTo(input.Conversation)
	if err != nil {
		RespondError(c, "conversation inválida: "+err.Error(), http.StatusBadRequest)
		return
	}

	st, ok := scheduledStore(c)
	if !ok {
		return
	}

	msg, err := st.Enqueue(input.Instance, phone, input.Body, input.ScheduledAt, input.Tag, input.Tipo)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"scheduled_message": msg})
}

// GET /api/scheduled-messages?instance=&conversation=&tag=&tipo=
func GetScheduledMessages(c *gin.Context) {
	instance := strings.TrimSpace(c.Query("instance"))
	conversation := strings.TrimSpace(c.Query("conversation"))
	if instance == "" || conversation == "" {
		RespondError(c, "instance e conversation são obrigatórios", http.StatusBadRequest)
		return
	}

	st, ok := scheduledStore(c)
	if !ok {
		return
	}

	msgs, err := st.List(instance, conversation, c.Query("tag"), c.Query("tipo"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"scheduled_messages": msgs})
}

// GET /api/scheduled-messages/:id
func GetScheduledMessageByID(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	st, ok := scheduledStore(c)
	if !ok {
		return
	}

	msg, err := st.Get(id)
	if err != nil {
		RespondError(c, "mensagem não encontrada", http.StatusNotFound)
		return
	}
	RespondSuccess(c, gin.H{"scheduled_message": msg})
}

// POST /api/scheduled-messages/:id/pause
func PauseScheduledMessage(c *gin.Context) {
	setScheduledPause(c, true)
}

// POST /api/scheduled-messages/:id/resume
func ResumeScheduledMessage(c *gin.Context) {
	setScheduledPause(c, false)
}

func setScheduledPause(c *gin.Context, paused bool) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	st, ok := scheduledStore(c)
	if !ok {
		return
	}

	if err := st.SetPaused(id, paused); err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"id": id, "is_paused": paused})
}

// DELETE /api/scheduled-messages/:id
func DeleteScheduledMessage(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	st, ok := scheduledStore(c)
	if !ok {
		return
	}

	n, err := st.Delete(id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"deleted": n})
}

type CampaignInput struct {
	Instance     string `json:"instance" binding:"required"`
	Conversation string `json:"conversation" binding:"required"`
	Tag          string `json:"tag"`
	Tipo         string `json:"tipo"`
	Reason       string `json:"reason"`
}

// DELETE /api/scheduled-messages/by-tag
// Remove incondicional: quem nomeia a tag quer a campanha inteira fora,
// independente de status.
func DeleteScheduledMessagesByTag(c *gin.Context) {
	var input CampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	st, ok := scheduledStore(c)
	if !ok {
		return
	}

	n, err := st.DeleteByTag(input.Instance, input.Conversation, input.Tag)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"deleted": n})
}

// DELETE /api/scheduled-messages/by-tipo
func DeleteScheduledMessagesByTipo(c *gin.Context) {
	var input CampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	st, ok := scheduledStore(c)
	if !ok {
		return
	}

	n, err := st.DeleteByTipo(input.Instance, input.Conversation, input.Tipo)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"deleted": n})
}

// POST /api/scheduled-messages/cancel-pending
// Varre só as pendentes da conversa para failed; sent/failed ficam como estão.
func CancelPendingScheduledMessages(c *gin.Context) {
	var input CampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	st, ok := scheduledStore(c)
	if !ok {
		return
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "cancelado manualmente"
	}

	n, err := st.MarkPendingFailed(input.Instance, input.Conversation, reason)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"cancelled": n})
}
