package identity

import (
	"context"
	"errors"
	"strings"

	"concierge-backend/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// LocalProvider keeps identities in the service's own database.
type LocalProvider struct {
	DB *gorm.DB
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var existing domain.Identity
	err := p.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrIdentityConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Persistence("find identity", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	id := &domain.Identity{Email: email, PasswordHash: string(hash)}
	if err := p.DB.WithContext(ctx).Create(id).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrIdentityConflict
		}
		return nil, domain.Persistence("create identity", err)
	}
	return &User{ID: id.ID.String(), Email: id.Email}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var id domain.Identity
	if err := p.DB.WithContext(ctx).Where("email = ?", email).First(&id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, domain.Persistence("find identity", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &User{ID: id.ID.String(), Email: id.Email}, nil
}

func (p *LocalProvider) GetUser(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var row domain.Identity
	if err := p.DB.WithContext(ctx).Where("id = ?", uid).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, domain.Persistence("get identity", err)
	}
	return &User{ID: row.ID.String(), Email: row.Email}, nil
}

func (p *LocalProvider) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	return domain.Persistence("delete identity", p.DB.WithContext(ctx).Where("id = ?", uid).Delete(&domain.Identity{}).Error)
}
