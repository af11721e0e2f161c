package documents

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"concierge-backend/internal/application/uploads"
	"concierge-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultBucket is used when SUPABASE_DOCUMENTS_BUCKET is empty.
const DefaultBucket = "client-documents"

var (
	ErrNotFound         = domain.ErrNotFound
	ErrFileNameRequired = errors.New("file_name is required")
)

// Service keeps client document metadata in the database and the bytes in storage.
type Service struct {
	DB      *gorm.DB
	Uploads *uploads.Service
	Bucket  string
}

func (s *Service) bucket() string {
	if s.Bucket != "" {
		return s.Bucket
	}
	return DefaultBucket
}

// CreateUploadInput is the operator request for a new document slot.
type CreateUploadInput struct {
	FileName string                 `json:"file_name"`
	Metadata map[string]interface{} `json:"metadata"`
}

// UploadSlot pairs the stored document row with the URL the browser uploads to.
type UploadSlot struct {
	Document  *domain.ClientDocument `json:"document"`
	UploadURL string                 `json:"upload_url"`
}

// CreateUploadURL reserves a storage object for clientID and records its metadata.
func (s *Service) CreateUploadURL(ctx context.Context, clientID uuid.UUID, in CreateUploadInput) (*UploadSlot, error) {
	if strings.TrimSpace(in.FileName) == "" {
		return nil, ErrFileNameRequired
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Client{}).Where("id = ?", clientID).Count(&count).Error; err != nil {
		return nil, domain.Persistence("find client", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	res, err := s.Uploads.GetSignedUploadURL(ctx, s.bucket(), clientID.String(), in.FileName)
	if err != nil {
		return nil, err
	}

	meta := datatypes.JSON([]byte("{}"))
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, err
		}
		meta = datatypes.JSON(raw)
	}
	doc := &domain.ClientDocument{
		ClientID:  clientID,
		FileName:  strings.TrimSpace(in.FileName),
		Path:      res.Path,
		PublicURL: res.PublicURL,
		Metadata:  meta,
	}
	if err := s.DB.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, domain.Persistence("create document", err)
	}
	return &UploadSlot{Document: doc, UploadURL: res.UploadURL}, nil
}

// List returns a client's documents, newest first.
func (s *Service) List(ctx context.Context, clientID uuid.UUID) ([]domain.ClientDocument, error) {
	var out []domain.ClientDocument
	err := s.DB.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, domain.Persistence("list documents", err)
	}
	return out, nil
}

// Delete removes the document row, then the stored object. A storage failure is
// logged only; the row is already gone and the object is unreachable from the app.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	var doc domain.ClientDocument
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return domain.Persistence("find document", err)
	}
	if err := s.DB.WithContext(ctx).Delete(&doc).Error; err != nil {
		return domain.Persistence("delete document", err)
	}
	if err := s.Uploads.Remove(ctx, s.bucket(), doc.Path); err != nil {
		log.Warn().Err(err).Str("document_id", doc.ID.String()).Str("path", doc.Path).Msg("document storage object not removed")
	}
	return nil
}

// PurgeClient removes every document of clientID. Rows go in one statement;
// storage objects that fail to delete are logged like in Delete.
func (s *Service) PurgeClient(ctx context.Context, clientID uuid.UUID) error {
	docs, err := s.List(ctx, clientID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	if err := s.DB.WithContext(ctx).Where("client_id = ?", clientID).Delete(&domain.ClientDocument{}).Error; err != nil {
		return domain.Persistence("delete client documents", err)
	}
	for _, doc := range docs {
		if err := s.Uploads.Remove(ctx, s.bucket(), doc.Path); err != nil {
			log.Warn().Err(err).Str("client_id", clientID.String()).Str("path", doc.Path).Msg("document storage object not removed")
		}
	}
	return nil
}
