package invitations

import (
	"context"
	"errors"

	"concierge-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the persistence boundary for invitation records.
type Store interface {
	Create(ctx context.Context, inv *domain.Invitation) error
	FindByToken(ctx context.Context, token string) (*domain.Invitation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error)
	// Delete removes the record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
	// Claim deletes the record and reports whether this call was the one that removed it.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]domain.Invitation, error)
}

// GormStore implements Store on the invites table.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) Create(ctx context.Context, inv *domain.Invitation) error {
	return domain.Persistence("create invite", s.DB.WithContext(ctx).Create(inv).Error)
}

func (s *GormStore) FindByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, domain.Persistence("find invite by token", err)
	}
	return &inv, nil
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, domain.Persistence("find invite", err)
	}
	return &inv, nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.Claim(ctx, id)
	return err
}

func (s *GormStore) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Invitation{})
	if res.Error != nil {
		return false, domain.Persistence("delete invite", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) List(ctx context.Context) ([]domain.Invitation, error) {
	var out []domain.Invitation
	if err := s.DB.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, domain.Persistence("list invites", err)
	}
	return out, nil
}
