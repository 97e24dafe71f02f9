package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tutorhub/quiz-service/internal/models"
)

// quizRecord is the snapshot row for one quiz document. The document itself
// is stored as jsonb; the extracted columns exist for operational queries
// against the table, not for the store's own reads.
type quizRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	TutorID   string `gorm:"size:64;index"`
	StudentID string `gorm:"size:64;index"`
	Status    string `gorm:"size:16;index"`

	// Seq preserves the collection's insertion order across flushes.
	Seq int `gorm:"not null"`

	Doc datatypes.JSON `gorm:"type:jsonb;not null"`
}

func (quizRecord) TableName() string {
	return "quiz_documents"
}

// PostgresSubstrate stores the collection as jsonb snapshot rows. SaveAll
// replaces the whole table in one transaction, which gives the store its
// no-partial-writes guarantee: other readers observe either the pre-call or
// the post-call collection.
type PostgresSubstrate struct {
	db *gorm.DB
}

func NewPostgresSubstrate(db *gorm.DB) (*PostgresSubstrate, error) {
	if err := db.AutoMigrate(&quizRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate quiz_documents: %w", err)
	}
	return &PostgresSubstrate{db: db}, nil
}

func (p *PostgresSubstrate) LoadAll(ctx context.Context) ([]models.Quiz, error) {
	var records []quizRecord
	if err := p.db.WithContext(ctx).Order("seq ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load quiz collection: %w", err)
	}

	quizzes := make([]models.Quiz, len(records))
	for i, record := range records {
		if err := json.Unmarshal(record.Doc, &quizzes[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quiz %s: %w", record.ID, err)
		}
	}
	return quizzes, nil
}

func (p *PostgresSubstrate) SaveAll(ctx context.Context, quizzes []models.Quiz) error {
	records := make([]quizRecord, len(quizzes))
	for i := range quizzes {
		doc, err := json.Marshal(&quizzes[i])
		if err != nil {
			return fmt.Errorf("failed to marshal quiz %s: %w", quizzes[i].ID, err)
		}
		records[i] = quizRecord{
			ID:        quizzes[i].ID,
			TutorID:   quizzes[i].TutorID,
			StudentID: quizzes[i].StudentID,
			Status:    string(quizzes[i].Status),
			Seq:       i,
			Doc:       doc,
		}
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&quizRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear quiz collection: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&records).Error; err != nil {
			return fmt.Errorf("failed to write quiz collection: %w", err)
		}
		return nil
	})
}
