package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"maritaca/models"

	"github.com/jinzhu/gorm"
)

// WhatsAppClient is a thin client for WhatsApp Cloud API calls that are tenant-specific.
type WhatsAppClient struct {
	AccessToken   string
	ApiVersion    string // e.g. v24.0
	PhoneNumberID string
}

func (c WhatsAppClient) post(ctx context.Context, path string, body any) error {
	apiVersion := strings.TrimSpace(c.ApiVersion)
	if apiVersion == "" {
		apiVersion = "v24.0"
	}
	url := fmt.Sprintf("https://graph.facebook.com/%s/%s/%s", apiVersion, strings.TrimSpace(c.PhoneNumberID), path)

	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.AccessToken))
	req.Header.Set("Content-Type", "application/json")

	httpClient := &http.Client{Timeout: 30 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp api error: status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}

// SendText sends a text message through this tenant's Cloud API number.
func (c WhatsAppClient) SendText(ctx context.Context, to string, text string) error {
	return c.post(ctx, "messages", map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text": map[string]any{
			"body": text,
		},
	})
}

// SendWhatsAppText sends a text message using legacy env credentials
// (WHATSAPP_ACCESS_TOKEN / WHATSAPP_PHONE_NUMBER_ID). Kept as the fallback
// for single-tenant setups without an Instance row.
func SendWhatsAppText(ctx context.Context, to string, text string) error {
	token := strings.TrimSpace(os.Getenv("WHATSAPP_ACCESS_TOKEN"))
	phoneID := strings.TrimSpace(os.Getenv("WHATSAPP_PHONE_NUMBER_ID"))
	if token == "" || phoneID == "" {
		return fmt.Errorf("WHATSAPP_ACCESS_TOKEN or WHATSAPP_PHONE_NUMBER_ID not set")
	}
	client := WhatsAppClient{AccessToken: token, PhoneNumberID: phoneID}
	return client.SendText(ctx, to, text)
}

// WhatsAppTransport resolves an instance's credentials and sends through its
// number. Satisfies workers.Transport.
type WhatsAppTransport struct {
	DB *gorm.DB
}

func (t WhatsAppTransport) Send(ctx context.Context, instance, conversation, body string) error {
	if t.DB != nil {
		var inst models.Instance
		if err := t.DB.Where("name = ?", instance).First(&inst).Error; err == nil {
			client := WhatsAppClient{
				AccessToken:   inst.AccessToken,
				ApiVersion:    inst.ApiVersion,
				PhoneNumberID: inst.PhoneNumberID,
			}
			return client.SendText(ctx, conversation, body)
		}
	}
	// Sem Instance cadastrada: tenta as credenciais legadas de env.
	return SendWhatsAppText(ctx, conversation, body)
}
