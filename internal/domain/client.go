package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Authorization states of a client record.
const (
	AuthorizationPending  = "pending"
	AuthorizationApproved = "approved"
)

// Register types of a client record.
const (
	RegisterSelf    = "self"
	RegisterInvited = "invited"
)

// Client is the durable client record owned by the client-management area.
type Client struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AuthID *string   `gorm:"column:auth_id;uniqueIndex" json:"auth_id"`
	InvitationFields
	IsAuthorized string    `gorm:"column:is_authorized;not null;default:pending" json:"is_authorized"`
	RegisterType string    `gorm:"column:register_type;not null;default:self" json:"register_type"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
