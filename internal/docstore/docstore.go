// Package docstore exposes the persistence layer as a document-style
// key-value store. The AI cost-control services address everything by
// synthetic keys (usage_{userId}, cache_{userId}_{type}_{lang},
// budget_global) so they stay independent of the relational schema.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("document not found")

type Store interface {
	// Get unmarshals the document stored under key into out.
	// Returns ErrNotFound when no document exists.
	Get(ctx context.Context, key string, out interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	// Update merges partial into the stored JSON object, creating the
	// document if absent.
	Update(ctx context.Context, key string, partial map[string]interface{}) error
	Delete(ctx context.Context, key string) error
	// List returns raw documents whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string][]byte, error)
}

// Document is the gorm model backing the store: one JSON blob per key.
type Document struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte `gorm:"type:jsonb"`
	UpdatedAt int64  `gorm:"autoUpdateTime"`
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string, out interface{}) error {
	var doc Document
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read document %s: %w", key, err)
	}
	if err := json.Unmarshal(doc.Value, out); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", key, err)
	}
	doc := Document{Key: key, Value: raw}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Update(ctx context.Context, key string, partial map[string]interface{}) error {
	merged := map[string]interface{}{}
	if err := s.Get(ctx, key, &merged); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	for k, v := range partial {
		merged[k] = v
	}
	return s.Set(ctx, key, merged)
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&Document{}).Error
}

func (s *GormStore) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	var docs []Document
	err := s.db.WithContext(ctx).Where("key LIKE ?", prefix+"%").Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents with prefix %s: %w", prefix, err)
	}
	out := make(map[string][]byte, len(docs))
	for _, doc := range docs {
		out[doc.Key] = doc.Value
	}
	return out, nil
}
