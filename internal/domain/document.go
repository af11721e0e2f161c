package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClientDocument is metadata for a file a client's operator uploaded to storage.
// The bytes live in the storage bucket; only the path and descriptive metadata are kept here.
type ClientDocument struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ClientID  uuid.UUID      `gorm:"column:client_id;type:uuid;not null;index" json:"client_id"`
	FileName  string         `gorm:"column:file_name;not null" json:"file_name"`
	Path      string         `gorm:"column:path;not null" json:"path"`
	PublicURL string         `gorm:"column:public_url;not null" json:"public_url"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ClientDocument) TableName() string {
	return "client_documents"
}

func (d *ClientDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
