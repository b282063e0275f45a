package models

import (
	"context"
	"errors"
	"time"

	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
	"gorm.io/gorm"
)

// NotificationConfig holds the SMTP settings used to email receipts.
// At most one config is active at a time.
type NotificationConfig struct {
	ID          int    `gorm:"primary_key" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name" binding:"required"`
	Host        string `gorm:"size:255;not null" json:"host" binding:"required"`
	Port        int    `gorm:"not null;default:587" json:"port"`
	Username    string `gorm:"size:255" json:"username"`
	Password    string `gorm:"size:255" json:"-"`
	FromAddress string `gorm:"size:255;not null" json:"from_address" binding:"required"`
	FromName    string `gorm:"size:100" json:"from_name"`
	IsActive    *bool  `gorm:"not null;default:false" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n NotificationConfig) GetId() int {
	return n.ID
}

type NewNotificationConfig struct {
	Name        string `json:"name" binding:"required"`
	Host        string `json:"host" binding:"required"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FromAddress string `json:"from_address" binding:"required"`
	FromName    string `json:"from_name"`
	IsActive    *bool  `json:"is_active"`
}

func (input *NewNotificationConfig) validate() error {
	if input.Host == "" {
		return utils.NewValidationError("smtp host is required")
	}
	if input.Port < 0 || input.Port > 65535 {
		return utils.NewValidationError("smtp port %d is out of range", input.Port)
	}
	if !utils.IsValidEmail(input.FromAddress) {
		return utils.NewValidationError("from address %s is not a valid email", input.FromAddress)
	}
	return nil
}

func CreateNotificationConfig(ctx context.Context, input *NewNotificationConfig) (*NotificationConfig, error) {

	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[NotificationConfig](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	port := input.Port
	if port == 0 {
		port = 587
	}
	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewFalse()
	}

	notificationConfig := NotificationConfig{
		Name:        input.Name,
		Host:        input.Host,
		Port:        port,
		Username:    input.Username,
		Password:    input.Password,
		FromAddress: input.FromAddress,
		FromName:    input.FromName,
		IsActive:    isActive,
	}

	db := config.GetDB()
	tx := db.Begin()
	if *isActive {
		if err := tx.WithContext(ctx).Model(&NotificationConfig{}).
			Where("is_active = ?", true).
			Update("IsActive", false).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.WithContext(ctx).Create(&notificationConfig).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditCreate(tx.WithContext(ctx), "notification_configs", notificationConfig.ID, notificationConfig, "Notification config "+notificationConfig.Name+" created.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &notificationConfig, nil
}

// ActivateNotificationConfig makes the given config the active one,
// deactivating any other inside the same transaction.
func ActivateNotificationConfig(ctx context.Context, id int) (*NotificationConfig, error) {

	notificationConfig, err := utils.FetchModel[NotificationConfig](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&NotificationConfig{}).
		Where("is_active = ? AND id != ?", true, id).
		Update("IsActive", false).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&NotificationConfig{ID: id}).
		Update("IsActive", true).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditUpdate(tx.WithContext(ctx), "notification_configs", id, notificationConfig, map[string]interface{}{"IsActive": true}, "Notification config "+notificationConfig.Name+" activated.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[NotificationConfig](ctx, id)
}

func UpdateNotificationConfig(ctx context.Context, id int, input *NewNotificationConfig) (*NotificationConfig, error) {

	if err := input.validate(); err != nil {
		return nil, err
	}
	before, err := utils.FetchModel[NotificationConfig](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[NotificationConfig](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":        input.Name,
		"Host":        input.Host,
		"FromAddress": input.FromAddress,
		"FromName":    input.FromName,
		"Username":    input.Username,
	}
	if input.Port != 0 {
		updates["Port"] = input.Port
	}
	if input.Password != "" {
		updates["Password"] = input.Password
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&NotificationConfig{ID: id}).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditUpdate(tx.WithContext(ctx), "notification_configs", id, before, updates, "Notification config "+before.Name+" updated.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return utils.FetchModel[NotificationConfig](ctx, id)
}

func DeleteNotificationConfig(ctx context.Context, id int) (*NotificationConfig, error) {

	notificationConfig, err := utils.FetchModel[NotificationConfig](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&notificationConfig).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditDelete(tx.WithContext(ctx), "notification_configs", id, notificationConfig, "Notification config "+notificationConfig.Name+" deleted.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return notificationConfig, nil
}

func GetNotificationConfig(ctx context.Context, id int) (*NotificationConfig, error) {
	return utils.FetchModel[NotificationConfig](ctx, id)
}

// GetActiveNotificationConfig returns utils.ErrorRecordNotFound when no
// config is active; callers treat that as "notification disabled".
func GetActiveNotificationConfig(ctx context.Context) (*NotificationConfig, error) {

	db := config.GetDB()
	var notificationConfig NotificationConfig
	result := db.WithContext(ctx).Where("is_active = ?", true).First(&notificationConfig)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, result.Error
	}
	return &notificationConfig, nil
}

func ListNotificationConfigs(ctx context.Context) ([]*NotificationConfig, error) {
	return utils.FetchAllModels[NotificationConfig](ctx)
}
