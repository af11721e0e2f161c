package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationFields is the profile captured when an operator invites a client.
// It travels unchanged from the invite form to the provisioned client record.
type InvitationFields struct {
	Email       string  `gorm:"column:email;not null" json:"email" validate:"required,email,max=255"`
	Name        *string `gorm:"column:name" json:"name" validate:"omitempty,max=255"`
	Contact     *string `gorm:"column:contact" json:"contact" validate:"omitempty,numeric,max=32"`
	Address     *string `gorm:"column:address" json:"address" validate:"omitempty,max=255"`
	DateOfBirth *string `gorm:"column:date_of_birth" json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string `gorm:"column:gender" json:"gender" validate:"omitempty,max=32"`
	Nationality *string `gorm:"column:nationality" json:"nationality" validate:"omitempty,max=64"`
}

// Invitation is a single-use, expiring credential that lets the recipient
// create exactly one client account. Rows are hard-deleted once consumed or reaped.
type Invitation struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvitationFields
	Token     string    `gorm:"column:token;not null;uniqueIndex" json:"token"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedBy *string   `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Invitation) TableName() string {
	return "invites"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
