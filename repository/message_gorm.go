package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dennis-nst/no-lose/domains/chat"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type messageModel struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	UserID         *uint  `gorm:"index:idx_messages_user"`
	WaMessageID    string `gorm:"index:idx_messages_wa_id;size:255"`
	ContactID      uint   `gorm:"index:idx_messages_contact;not null"`
	ConversationID *uint
	// Bridge external key: globally unique when present, the sole dedup
	// key for bridge-sourced messages. NULL for cloud messages.
	BridgeKeyID *string   `gorm:"uniqueIndex:idx_messages_bridge_key;size:255"`
	Source      string    `gorm:"size:50;default:'cloud_api'"`
	MessageType string    `gorm:"size:50"`
	Content     string    `gorm:"type:text"`
	MediaURL    string    `gorm:"size:500"`
	MediaID     string    `gorm:"size:255"`
	IsOutbound  bool      `gorm:"default:false"`
	Status      string    `gorm:"size:50;default:'received'"`
	Timestamp   time.Time `gorm:"index:idx_messages_timestamp"`
	CreatedAt   time.Time `gorm:"not null"`
	RawData     string    `gorm:"type:text"`
}

func (messageModel) TableName() string {
	return "messages"
}

// --- Repository Implementation ---

type MessageGormRepository struct {
	db *gorm.DB
}

func NewMessageGormRepository(db *gorm.DB) *MessageGormRepository {
	return &MessageGormRepository{db: db}
}

func (r *MessageGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&messageModel{})
}

// Create inserts the message. A uniqueness violation on the bridge key is
// reported as chat.ErrDuplicateMessage so concurrent retried deliveries of
// the same event collapse to one row.
func (r *MessageGormRepository) Create(ctx context.Context, message *chat.Message) error {
	now := time.Now().UTC()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}

	model := toMessageModel(message)
	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return chat.ErrDuplicateMessage
		}
		return result.Error
	}
	message.ID = model.ID
	return nil
}

func (r *MessageGormRepository) GetByBridgeKeyID(ctx context.Context, keyID string) (*chat.Message, error) {
	var m messageModel
	if err := r.db.WithContext(ctx).Where("bridge_key_id = ?", keyID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrMessageNotFound
		}
		return nil, err
	}
	return fromMessageModel(m), nil
}

func (r *MessageGormRepository) GetByWaMessageID(ctx context.Context, userID *uint, waMessageID string) (*chat.Message, error) {
	query := r.db.WithContext(ctx).Where("wa_message_id = ?", waMessageID)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var m messageModel
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrMessageNotFound
		}
		return nil, err
	}
	return fromMessageModel(m), nil
}

func (r *MessageGormRepository) ListByContact(ctx context.Context, userID uint, contactID uint, offset, limit int) ([]*chat.Message, error) {
	var models []messageModel
	query := r.db.WithContext(ctx).
		Where("contact_id = ? AND user_id = ?", contactID, userID).
		Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	messages := make([]*chat.Message, len(models))
	for i, m := range models {
		messages[i] = fromMessageModel(m)
	}
	return messages, nil
}

func (r *MessageGormRepository) UpdateStatusByWaMessageID(ctx context.Context, waMessageID, status string) error {
	result := r.db.WithContext(ctx).Model(&messageModel{}).
		Where("wa_message_id = ?", waMessageID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return chat.ErrMessageNotFound
	}
	return nil
}

func (r *MessageGormRepository) Stats(ctx context.Context) (chat.MessageStats, error) {
	var stats chat.MessageStats

	if err := r.db.WithContext(ctx).Model(&messageModel{}).Count(&stats.TotalMessages).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&messageModel{}).Where("is_outbound = ?", false).Count(&stats.InboundMessages).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&messageModel{}).Where("is_outbound = ?", true).Count(&stats.OutboundMessages).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// --- Mappers ---

func toMessageModel(m *chat.Message) messageModel {
	return messageModel{
		ID:             m.ID,
		UserID:         m.UserID,
		WaMessageID:    m.WaMessageID,
		ContactID:      m.ContactID,
		ConversationID: m.ConversationID,
		BridgeKeyID:    m.BridgeKeyID,
		Source:         string(m.Source),
		MessageType:    m.Type,
		Content:        m.Content,
		MediaURL:       m.MediaURL,
		MediaID:        m.MediaID,
		IsOutbound:     m.IsOutbound,
		Status:         m.Status,
		Timestamp:      m.Timestamp,
		CreatedAt:      m.CreatedAt,
		RawData:        m.RawData,
	}
}

func fromMessageModel(m messageModel) *chat.Message {
	return &chat.Message{
		ID:             m.ID,
		UserID:         m.UserID,
		WaMessageID:    m.WaMessageID,
		ContactID:      m.ContactID,
		ConversationID: m.ConversationID,
		BridgeKeyID:    m.BridgeKeyID,
		Source:         chat.MessageSource(m.Source),
		Type:           m.MessageType,
		Content:        m.Content,
		MediaURL:       m.MediaURL,
		MediaID:        m.MediaID,
		IsOutbound:     m.IsOutbound,
		Status:         m.Status,
		Timestamp:      m.Timestamp,
		CreatedAt:      m.CreatedAt,
		RawData:        m.RawData,
	}
}
