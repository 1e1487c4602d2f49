package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dennis-nst/no-lose/domains/chat"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type contactModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	UserID      *uint  `gorm:"index:idx_contacts_user;uniqueIndex:idx_contacts_user_jid,priority:1"`
	WaID        string `gorm:"index:idx_contacts_wa_id;size:50"`
	Name        string `gorm:"size:255"`
	ProfileName string `gorm:"size:255"`
	// Bridge routing identifier. NULL until learned, then unique per owner
	// (NULLs never collide under the composite unique index).
	RemoteJid *string   `gorm:"uniqueIndex:idx_contacts_user_jid,priority:2;size:100"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (contactModel) TableName() string {
	return "contacts"
}

// --- Repository Implementation ---

type ContactGormRepository struct {
	db *gorm.DB
}

func NewContactGormRepository(db *gorm.DB) *ContactGormRepository {
	return &ContactGormRepository{db: db}
}

func (r *ContactGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&contactModel{})
}

func (r *ContactGormRepository) Create(ctx context.Context, contact *chat.Contact) error {
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now

	model := toContactModel(contact)
	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		return result.Error
	}
	contact.ID = model.ID
	return nil
}

func (r *ContactGormRepository) GetByID(ctx context.Context, id uint) (*chat.Contact, error) {
	var m contactModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrContactNotFound
		}
		return nil, err
	}
	return fromContactModel(m), nil
}

func (r *ContactGormRepository) GetByUserAndID(ctx context.Context, userID uint, id uint) (*chat.Contact, error) {
	var m contactModel
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrContactNotFound
		}
		return nil, err
	}
	return fromContactModel(m), nil
}

func (r *ContactGormRepository) GetByUserAndRemoteJid(ctx context.Context, userID uint, remoteJid string) (*chat.Contact, error) {
	var m contactModel
	if err := r.db.WithContext(ctx).Where("user_id = ? AND remote_jid = ?", userID, remoteJid).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrContactNotFound
		}
		return nil, err
	}
	return fromContactModel(m), nil
}

func (r *ContactGormRepository) GetByUserAndWaID(ctx context.Context, userID uint, waID string) (*chat.Contact, error) {
	var m contactModel
	if err := r.db.WithContext(ctx).Where("user_id = ? AND wa_id = ?", userID, waID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrContactNotFound
		}
		return nil, err
	}
	return fromContactModel(m), nil
}

func (r *ContactGormRepository) GetByWaID(ctx context.Context, waID string) (*chat.Contact, error) {
	var m contactModel
	if err := r.db.WithContext(ctx).Where("wa_id = ?", waID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrContactNotFound
		}
		return nil, err
	}
	return fromContactModel(m), nil
}

func (r *ContactGormRepository) Update(ctx context.Context, contact *chat.Contact) error {
	contact.UpdatedAt = time.Now().UTC()
	model := toContactModel(contact)

	result := r.db.WithContext(ctx).Model(&contactModel{ID: contact.ID}).Select("*").Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return chat.ErrContactNotFound
	}
	return nil
}

func (r *ContactGormRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*chat.Contact, error) {
	var models []contactModel
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	contacts := make([]*chat.Contact, len(models))
	for i, m := range models {
		contacts[i] = fromContactModel(m)
	}
	return contacts, nil
}

func (r *ContactGormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&contactModel{}).Count(&count).Error
	return count, err
}

// --- Mappers ---

func toContactModel(c *chat.Contact) contactModel {
	var remoteJid *string
	if c.RemoteJid != "" {
		jid := c.RemoteJid
		remoteJid = &jid
	}
	return contactModel{
		ID:          c.ID,
		UserID:      c.UserID,
		WaID:        c.WaID,
		Name:        c.Name,
		ProfileName: c.ProfileName,
		RemoteJid:   remoteJid,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func fromContactModel(m contactModel) *chat.Contact {
	c := &chat.Contact{
		ID:          m.ID,
		UserID:      m.UserID,
		WaID:        m.WaID,
		Name:        m.Name,
		ProfileName: m.ProfileName,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.RemoteJid != nil {
		c.RemoteJid = *m.RemoteJid
	}
	return c
}
