package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"jobBoard/internal/database"
)

// ErrNotOwner 表示公司资料属于其他雇主。
var ErrNotOwner = errors.New("company belongs to another employer")

// CompanyRepository 负责公司资料。
type CompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository 构造 CompanyRepository。
func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// GetByName 按名称读取公司资料（不区分大小写）。
func (r *CompanyRepository) GetByName(ctx context.Context, name string) (*database.Company, error) {
	var company database.Company
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &company, nil
}

// Upsert 创建或更新雇主自己的公司资料。
// 同名公司已被其他雇主创建时返回 ErrNotOwner。
func (r *CompanyRepository) Upsert(ctx context.Context, ownerID uint, in database.Company) (*database.Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	var out database.Company
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.Company
		err := tx.Where("LOWER(name) = ?", strings.ToLower(in.Name)).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			in.ID = 0
			in.OwnerID = ownerID
			if err := tx.Create(&in).Error; err != nil {
				return err
			}
			out = in
			return nil
		case err != nil:
			return err
		}

		if existing.OwnerID != ownerID {
			return ErrNotOwner
		}
		in.ID = existing.ID
		in.OwnerID = ownerID
		in.CreatedAt = existing.CreatedAt
		if err := tx.Save(&in).Error; err != nil {
			return err
		}
		out = in
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotOwner) {
			return nil, err
		}
		return nil, fmt.Errorf("upsert company: %w", err)
	}
	return &out, nil
}

// SetLogo 更新雇主公司资料的 logo。
func (r *CompanyRepository) SetLogo(ctx context.Context, ownerID uint, logo string) error {
	res := r.db.WithContext(ctx).Model(&database.Company{}).
		Where("owner_id = ?", ownerID).
		Update("logo", logo)
	if res.Error != nil {
		return fmt.Errorf("set company logo: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
