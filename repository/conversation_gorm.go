package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dennis-nst/no-lose/domains/chat"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type conversationModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	ContactID     uint      `gorm:"index:idx_conversations_contact;not null"`
	StartedAt     time.Time `gorm:"not null"`
	LastMessageAt time.Time `gorm:"not null"`
	IsActive      bool      `gorm:"default:true"`
}

func (conversationModel) TableName() string {
	return "conversations"
}

// --- Repository Implementation ---

type ConversationGormRepository struct {
	db *gorm.DB
}

func NewConversationGormRepository(db *gorm.DB) *ConversationGormRepository {
	return &ConversationGormRepository{db: db}
}

func (r *ConversationGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&conversationModel{})
}

func (r *ConversationGormRepository) Create(ctx context.Context, conversation *chat.Conversation) error {
	now := time.Now().UTC()
	if conversation.StartedAt.IsZero() {
		conversation.StartedAt = now
	}
	if conversation.LastMessageAt.IsZero() {
		conversation.LastMessageAt = now
	}
	conversation.IsActive = true

	model := toConversationModel(conversation)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	conversation.ID = model.ID
	return nil
}

func (r *ConversationGormRepository) GetActiveByContact(ctx context.Context, contactID uint) (*chat.Conversation, error) {
	var m conversationModel
	if err := r.db.WithContext(ctx).Where("contact_id = ? AND is_active = ?", contactID, true).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrConversationNotFound
		}
		return nil, err
	}
	return fromConversationModel(m), nil
}

func (r *ConversationGormRepository) TouchLastMessage(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&conversationModel{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}

func (r *ConversationGormRepository) List(ctx context.Context, offset, limit int) ([]*chat.Conversation, error) {
	var models []conversationModel
	query := r.db.WithContext(ctx).Order("started_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	conversations := make([]*chat.Conversation, len(models))
	for i, m := range models {
		conversations[i] = fromConversationModel(m)
	}
	return conversations, nil
}

func (r *ConversationGormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&conversationModel{}).Count(&count).Error
	return count, err
}

// --- Mappers ---

func toConversationModel(c *chat.Conversation) conversationModel {
	return conversationModel{
		ID:            c.ID,
		ContactID:     c.ContactID,
		StartedAt:     c.StartedAt,
		LastMessageAt: c.LastMessageAt,
		IsActive:      c.IsActive,
	}
}

func fromConversationModel(m conversationModel) *chat.Conversation {
	return &chat.Conversation{
		ID:            m.ID,
		ContactID:     m.ContactID,
		StartedAt:     m.StartedAt,
		LastMessageAt: m.LastMessageAt,
		IsActive:      m.IsActive,
	}
}
