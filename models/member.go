package models

import (
	"context"
	"time"

	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
)

// Member is the person every source document references. The core treats
// identity as opaque; name and email are what the ledger details and the
// receipt dispatch need.
type Member struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:30" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m Member) GetId() int {
	return m.ID
}

type NewMember struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type MemberPatch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

func validateMemberContact(email string, phone string) error {
	if email != "" && !utils.IsValidEmail(email) {
		return utils.NewValidationError("invalid email %q", email)
	}
	if phone != "" {
		if err := utils.ValidatePhoneNumber(phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone %q", phone)
		}
	}
	return nil
}

func CreateMember(ctx context.Context, input *NewMember) (*Member, error) {

	if input.Name == "" {
		return nil, utils.NewValidationError("member name is required")
	}
	if err := validateMemberContact(input.Email, input.Phone); err != nil {
		return nil, err
	}

	member := Member{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&member).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditCreate(tx.WithContext(ctx), "members", member.ID, member, "Member "+member.Name+" created.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func UpdateMember(ctx context.Context, id int, patch *MemberPatch) (*Member, error) {

	before, err := utils.FetchModel[Member](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, utils.NewValidationError("member name is required")
		}
		updates["Name"] = *patch.Name
	}
	if patch.Email != nil {
		updates["Email"] = *patch.Email
	}
	if patch.Phone != nil {
		updates["Phone"] = *patch.Phone
	}
	if patch.IsActive != nil {
		updates["IsActive"] = *patch.IsActive
	}
	if err := validateMemberContact(
		utils.DereferencePtr(patch.Email, before.Email),
		utils.DereferencePtr(patch.Phone, before.Phone),
	); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return before, nil
	}

	db := config.GetDB()
	tx := db.Begin()
	target := Member{ID: id}
	if err := tx.WithContext(ctx).Model(&target).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditUpdate(tx.WithContext(ctx), "members", id, before, updates, "Member updated.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return utils.FetchModel[Member](ctx, id)
}

// DeleteMember refuses while any document still references the member.
func DeleteMember(ctx context.Context, id int) (*Member, error) {

	member, err := utils.FetchModel[Member](ctx, id)
	if err != nil {
		return nil, err
	}

	for table, condition := range map[string]string{
		"payments":    "member_id = ?",
		"collections": "member_id = ?",
		"dues":        "member_id = ?",
	} {
		var count int64
		db := config.GetDB()
		if err := db.WithContext(ctx).Table(table).Where(condition, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, utils.NewConflictError("member %d is referenced by %s", id, table)
		}
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&member).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditDelete(tx.WithContext(ctx), "members", id, member, "Member "+member.Name+" deleted.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return member, nil
}

func GetMember(ctx context.Context, id int) (*Member, error) {
	return utils.FetchModel[Member](ctx, id)
}

func ListMembers(ctx context.Context) ([]*Member, error) {
	return utils.FetchAllModels[Member](ctx)
}
