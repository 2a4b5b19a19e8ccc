package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	dbpkg "maritaca/db"
	"maritaca/engine"
	"maritaca/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type WebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Type string `json:"type"`
					Text *struct {
						Body string `json:"body"`
					} `json:"text,omitempty"`
					Image    *webhookMedia   `json:"image,omitempty"`
					Audio    *webhookMedia   `json:"audio,omitempty"`
					Video    *webhookMedia   `json:"video,omitempty"`
					Document *webhookMedia   `json:"document,omitempty"`
					Contacts json.RawMessage `json:"contacts,omitempty"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMedia struct {
	ID      string `json:"id"`
	Caption string `json:"caption"`
}

// IncomingItem é um evento inbound já convertido para o item que o agregador
// consome.
type IncomingItem struct {
	From string
	ID   string
	Item engine.InputItem
}

func extractInputItems(payload WebhookPayload) []IncomingItem {
	var out []IncomingItem

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if strings.TrimSpace(change.Field) != "messages" {
				continue
			}
			for _, m := range change.Value.Messages {
				from := strings.TrimSpace(m.From)
				if from == "" {
					continue
				}

				var item engine.InputItem
				switch strings.ToLower(strings.TrimSpace(m.Type)) {
				case "text":
					if m.Text == nil || strings.TrimSpace(m.Text.Body) == "" {
						continue
					}
					item = engine.TextItem{Body: strings.TrimSpace(m.Text.Body)}
				case "image":
					item = mediaItem("imagem", m.Image)
				case "audio":
					item = mediaItem("audio", m.Audio)
				case "video":
					item = mediaItem("video", m.Video)
				case "document":
					item = mediaItem("documento", m.Document)
				case "contacts":
					if len(m.Contacts) == 0 {
						continue
					}
					item = engine.ContactItem{Payload: string(m.Contacts)}
				default:
					continue
				}
				if item == nil {
					continue
				}

				out = append(out, IncomingItem{
					From: from,
					ID:   strings.TrimSpace(m.ID),
					Item: item,
				})
			}
		}
	}

	return out
}

func mediaItem(kind string, media *webhookMedia) engine.InputItem {
	if media == nil {
		return nil
	}
	return engine.MediaItem{
		Kind:      kind,
		Reference: media.ID,
		Caption:   media.Caption,
	}
}

func resolveWebhookInstance(c *gin.Context) (string, error) {
	// /webhook/:instance
	param := strings.TrimSpace(c.Param("instance"))
	if param != "" {
		return param, nil
	}

	// fallback para dev (mantém /webhook funcionando localmente)
	def := strings.TrimSpace(os.Getenv("WEBHOOK_DEFAULT_INSTANCE"))
	if def == "" {
		return "", fmt.Errorf("missing instance param and WEBHOOK_DEFAULT_INSTANCE not set")
	}
	return def, nil
}

// verifyMetaSignature validates the request body against Meta's signature header.
//
// WhatsApp/Graph Webhooks typically send: X-Hub-Signature-256: sha256=<hex>
// The secret should be your Meta App Secret (NOT the WhatsApp access token).
func verifyMetaSignature(c *gin.Context, rawBody []byte) (bool, string) {
	secret := strings.TrimSpace(os.Getenv("WEBHOOK_APP_SECRET"))
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("META_APP_SECRET"))
	}
	if secret == "" {
		return false, "missing WEBHOOK_APP_SECRET/META_APP_SECRET"
	}

	sig := strings.TrimSpace(c.GetHeader("X-Hub-Signature-256"))
	if sig == "" {
		return false, "missing X-Hub-Signature-256"
	}
	if !strings.HasPrefix(sig, "sha256=") {
		return false, "invalid X-Hub-Signature-256 format"
	}

	providedHex := strings.TrimPrefix(sig, "sha256=")
	provided, err := hex.DecodeString(providedHex)
	if err != nil {
		return false, "invalid signature hex"
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(rawBody)
	expected := mac.Sum(nil)

	if !hmac.Equal(provided, expected) {
		return false, "signature mismatch"
	}

	return true, ""
}

func requireRegisteredInstance(c *gin.Context, db *gorm.DB, name string) (*models.Instance, bool) {
	if strings.TrimSpace(name) == "" {
		RespondError(c, "instance inválida", http.StatusBadRequest)
		return nil, false
	}

	var inst models.Instance
	if err := db.Where("name = ?", name).First(&inst).Error; err != nil {
		RespondError(c, "instance não encontrada", http.StatusNotFound)
		return nil, false
	}

	return &inst, true
}

// WebhookController liga o webhook do Meta ao motor: cada mensagem inbound
// cancela follow-ups pendentes da conversa e entra na janela de debounce.
type WebhookController struct {
	Aggregator *engine.Aggregator
	Canceller  *engine.Canceller
	Debounce   time.Duration
}

// GET /webhook e GET /webhook/:instance
func (w *WebhookController) Verify(c *gin.Context) {
	verifyToken := os.Getenv("WEBHOOK_VERIFY_TOKEN")
	if verifyToken == "" {
		RespondError(c, "WEBHOOK_VERIFY_TOKEN not set", http.StatusInternalServerError)
		return
	}

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	fmt.Printf("[WA][VERIFY] path=%s mode=%s token_ok=%v challenge=%s\n",
		c.FullPath(), mode, token == verifyToken, challenge)

	if mode == "subscribe" && token == verifyToken && challenge != "" {
		c.String(http.StatusOK, "%s", challenge)
		return
	}

	RespondError(c, "forbidden", http.StatusForbidden)
}

// POST /webhook e POST /webhook/:instance
func (w *WebhookController) Update(c *gin.Context) {
	instance, err := resolveWebhookInstance(c)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	if _, ok := requireRegisteredInstance(c, db, instance); !ok {
		return
	}

	// Read raw body once so we can validate Meta signature.
	raw, err := c.GetRawData()
	if err != nil {
		RespondError(c, "failed to read body", http.StatusBadRequest)
		return
	}

	if ok, reason := verifyMetaSignature(c, raw); !ok {
		RespondError(c, "forbidden: "+reason, http.StatusForbidden)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}

	items := extractInputItems(payload)

	// responde rápido pro Meta
	c.String(http.StatusOK, "EVENT_RECEIVED")

	seen := make(map[string]bool)
	for _, in := range items {
		key := engine.ConversationKey{Instance: instance, Conversation: in.From}

		// Resposta do contato invalida automação pendente da conversa,
		// uma vez por webhook.
		if !seen[in.From] {
			seen[in.From] = true
			if n, err := w.Canceller.ContactReplied(key); err != nil {
				log.Printf("webhook: cancel pending error for %s: %v", key, err)
			} else if n > 0 {
				log.Printf("webhook: %d follow-up(s) cancelado(s) para %s", n, key)
			}
		}

		w.Aggregator.Submit(key, in.Item, w.Debounce)
	}
}
