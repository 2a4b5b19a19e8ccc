package models

import "time"

const (
	INSTANCE_STATUS_PENDING    = "pending"
	INSTANCE_STATUS_REGISTERED = "registered"
)

// Instance stores per-tenant WhatsApp Cloud API credentials.
// Name is the instanceId half of a conversation key.
type Instance struct {
	ID            int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name          string     `gorm:"not null;unique_index" json:"name" form:"name"`
	PhoneNumberID string     `gorm:"column:phone_number_id;not null" json:"phone_number_id" form:"phone_number_id"`
	AccessToken   string     `gorm:"column:access_token;not null" json:"access_token" form:"access_token"`
	ApiVersion    string     `gorm:"column:api_version;not null;default:'v24.0'" json:"api_version" form:"api_version"`
	Status        string     `gorm:"column:status;not null;default:'pending'" json:"status"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}
