package clients

import (
	"context"
	"errors"
	"strings"

	"concierge-backend/internal/application/identity"
	"concierge-backend/internal/domain"
	"concierge-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = domain.ErrNotFound
	ErrInvalidFilter = errors.New("Invalid client filter")
	ErrNoteText      = errors.New("Note text is required")
	ErrNoteNotFound  = errors.New("Note not found")
)

// ErrAwaitingApproval refuses sign-in to a client an operator has not approved yet.
var ErrAwaitingApproval = errors.New("Please wait for admin approval to gain access to the system.")

// IdentityRemover deletes the login identity linked to a client.
type IdentityRemover interface {
	Delete(ctx context.Context, id string) error
}

// DocumentPurger removes every stored document of a client.
type DocumentPurger interface {
	PurgeClient(ctx context.Context, clientID uuid.UUID) error
}

// Service holds DB for client, note reads and writes. Identity and Documents
// are only needed by Delete; nil skips that part of the cascade.
type Service struct {
	DB        *gorm.DB
	Identity  IdentityRemover
	Documents DocumentPurger
}

// ListClientsInput filters the client list. Empty fields match everything.
type ListClientsInput struct {
	Status       string `query:"status"`
	RegisterType string `query:"register_type"`
}

// List returns clients, newest first.
func (s *Service) List(ctx context.Context, in ListClientsInput) ([]domain.Client, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Client{})
	if in.Status != "" {
		if in.Status != domain.AuthorizationPending && in.Status != domain.AuthorizationApproved {
			return nil, ErrInvalidFilter
		}
		q = q.Where("is_authorized = ?", in.Status)
	}
	if in.RegisterType != "" {
		if in.RegisterType != domain.RegisterSelf && in.RegisterType != domain.RegisterInvited {
			return nil, ErrInvalidFilter
		}
		q = q.Where("register_type = ?", in.RegisterType)
	}
	var out []domain.Client
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, domain.Persistence("list clients", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var c domain.Client
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, domain.Persistence("get client", err)
	}
	return &c, nil
}

// GetByAuthID returns the client linked to an identity (the signed-in client's own record).
func (s *Service) GetByAuthID(ctx context.Context, authID string) (*domain.Client, error) {
	if authID == "" {
		return nil, ErrNotFound
	}
	var c domain.Client
	if err := s.DB.WithContext(ctx).Where("auth_id = ?", authID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, domain.Persistence("get client by auth id", err)
	}
	return &c, nil
}

// Approve grants a pending client access. Approving an approved client is a no-op.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsAuthorized == domain.AuthorizationApproved {
		return c, nil
	}
	c.IsAuthorized = domain.AuthorizationApproved
	if err := s.DB.WithContext(ctx).Model(c).Update("is_authorized", c.IsAuthorized).Error; err != nil {
		return nil, domain.Persistence("approve client", err)
	}
	return c, nil
}

// UpdateClientInput edits a client's profile. Nil fields stay as they are;
// an empty optional field clears it.
type UpdateClientInput struct {
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Contact     *string `json:"contact" validate:"omitempty,numeric,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender" validate:"omitempty,max=32"`
	Nationality *string `json:"nationality" validate:"omitempty,max=64"`
}

func (in *UpdateClientInput) normalize() {
	for _, f := range []*string{in.Email, in.Name, in.Contact, in.Address, in.DateOfBirth, in.Gender, in.Nationality} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if in.Email != nil {
		*in.Email = strings.ToLower(*in.Email)
	}
}

// optional maps an edited value onto a nullable column.
func optional(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// Update applies the profile edit. Renaming a client also relabels the
// client's notes that were signed with the previous name.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateClientInput) (*domain.Client, error) {
	in.normalize()
	if in.Email != nil && *in.Email == "" {
		return nil, &validation.Error{Fields: map[string]string{"email": "email is required"}}
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	cols := []struct {
		name string
		val  *string
	}{
		{"name", in.Name}, {"contact", in.Contact}, {"address", in.Address},
		{"date_of_birth", in.DateOfBirth}, {"gender", in.Gender}, {"nationality", in.Nationality},
	}
	for _, col := range cols {
		if col.val != nil {
			updates[col.name] = optional(*col.val)
		}
	}
	if len(updates) == 0 {
		return c, nil
	}

	oldName := ""
	if c.Name != nil {
		oldName = *c.Name
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Client{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if in.Name == nil || oldName == "" || *in.Name == "" || *in.Name == oldName {
			return nil
		}
		return tx.Model(&domain.Note{}).
			Where("client_id = ? AND created_by = ?", id, oldName).
			Update("created_by", *in.Name).Error
	})
	if err != nil {
		return nil, domain.Persistence("update client", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a client together with its login identity, documents and notes.
// The identity goes first so a failure there leaves the record in place to retry.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthID != nil && *c.AuthID != "" && s.Identity != nil {
		if err := s.Identity.Delete(ctx, *c.AuthID); err != nil && !errors.Is(err, identity.ErrNotFound) {
			return err
		}
	}
	if s.Documents != nil {
		if err := s.Documents.PurgeClient(ctx, id); err != nil {
			return err
		}
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&domain.Note{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Client{}).Error
	})
	return domain.Persistence("delete client", err)
}

// AddNote attaches a note to an existing client.
func (s *Service) AddNote(ctx context.Context, clientID uuid.UUID, text, createdBy string) (*domain.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoteText
	}
	if _, err := s.Get(ctx, clientID); err != nil {
		return nil, err
	}
	n := &domain.Note{ClientID: clientID, Text: text, CreatedBy: createdBy}
	if err := s.DB.WithContext(ctx).Create(n).Error; err != nil {
		return nil, domain.Persistence("add note", err)
	}
	return n, nil
}

// ListNotes returns a client's notes, newest first.
func (s *Service) ListNotes(ctx context.Context, clientID uuid.UUID) ([]domain.Note, error) {
	var out []domain.Note
	err := s.DB.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, domain.Persistence("list notes", err)
	}
	return out, nil
}

func (s *Service) UpdateNote(ctx context.Context, id uuid.UUID, text string) (*domain.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoteText
	}
	var n domain.Note
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, domain.Persistence("find note", err)
	}
	n.Text = text
	if err := s.DB.WithContext(ctx).Save(&n).Error; err != nil {
		return nil, domain.Persistence("update note", err)
	}
	return &n, nil
}

func (s *Service) DeleteNote(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Note{})
	if res.Error != nil {
		return domain.Persistence("delete note", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
