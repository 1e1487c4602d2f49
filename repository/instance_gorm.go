package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dennis-nst/no-lose/domains/instance"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type instanceModel struct {
	ID              string `gorm:"primaryKey"`
	UserID          uint   `gorm:"uniqueIndex:idx_instances_user;not null"`
	Name            string `gorm:"uniqueIndex:idx_instances_name;not null"`
	Status          string `gorm:"default:'disconnected'"`
	QRCode          string `gorm:"type:text"`
	QRCodeUpdatedAt *time.Time
	PhoneNumber     string
	ProfileName     string
	LastConnectedAt *time.Time
	RawState        string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (instanceModel) TableName() string {
	return "instances"
}

// --- Repository Implementation ---

type InstanceGormRepository struct {
	db *gorm.DB
}

func NewInstanceGormRepository(db *gorm.DB) *InstanceGormRepository {
	return &InstanceGormRepository{db: db}
}

func (r *InstanceGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&instanceModel{})
}

func (r *InstanceGormRepository) Create(ctx context.Context, inst *instance.Instance) error {
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now

	model := toInstanceModel(inst)
	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return instance.ErrDuplicateInstance
		}
		return result.Error
	}
	return nil
}

func (r *InstanceGormRepository) GetByUserID(ctx context.Context, userID uint) (*instance.Instance, error) {
	var m instanceModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, instance.ErrInstanceNotFound
		}
		return nil, err
	}
	return fromInstanceModel(m), nil
}

func (r *InstanceGormRepository) GetByName(ctx context.Context, name string) (*instance.Instance, error) {
	var m instanceModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, instance.ErrInstanceNotFound
		}
		return nil, err
	}
	return fromInstanceModel(m), nil
}

func (r *InstanceGormRepository) Update(ctx context.Context, inst *instance.Instance) error {
	inst.UpdatedAt = time.Now().UTC()
	model := toInstanceModel(inst)

	result := r.db.WithContext(ctx).Model(&instanceModel{ID: inst.ID}).Select("*").Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return instance.ErrInstanceNotFound
	}
	return nil
}

// --- Mappers ---

func toInstanceModel(i *instance.Instance) instanceModel {
	return instanceModel{
		ID:              i.ID,
		UserID:          i.UserID,
		Name:            i.Name,
		Status:          string(i.Status),
		QRCode:          i.QRCode,
		QRCodeUpdatedAt: i.QRCodeUpdatedAt,
		PhoneNumber:     i.PhoneNumber,
		ProfileName:     i.ProfileName,
		LastConnectedAt: i.LastConnectedAt,
		RawState:        i.RawState,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

func fromInstanceModel(m instanceModel) *instance.Instance {
	return &instance.Instance{
		ID:              m.ID,
		UserID:          m.UserID,
		Name:            m.Name,
		Status:          instance.Status(m.Status),
		QRCode:          m.QRCode,
		QRCodeUpdatedAt: m.QRCodeUpdatedAt,
		PhoneNumber:     m.PhoneNumber,
		ProfileName:     m.ProfileName,
		LastConnectedAt: m.LastConnectedAt,
		RawState:        m.RawState,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
