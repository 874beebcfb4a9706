package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobBoard/internal/database"
)

// SubscriberRepository 负责周报订阅。
type SubscriberRepository struct {
	db *gorm.DB
}

// NewSubscriberRepository 构造 SubscriberRepository。
func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// NormalizeEmail 统一邮箱格式，订阅与清理都以此为键。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Upsert 按邮箱（不区分大小写）插入订阅，已存在时只更新偏好。
func (r *SubscriberRepository) Upsert(ctx context.Context, email, preference string) (*database.Subscriber, error) {
	sub := database.Subscriber{
		Email:      NormalizeEmail(email),
		Preference: strings.TrimSpace(preference),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"preference", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return nil, fmt.Errorf("upsert subscriber: %w", err)
	}

	var stored database.Subscriber
	if err := r.db.WithContext(ctx).Where("email = ?", sub.Email).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload subscriber: %w", err)
	}
	return &stored, nil
}

// Delete 硬删除订阅。
func (r *SubscriberRepository) Delete(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).Delete(&database.Subscriber{})
	if res.Error != nil {
		return fmt.Errorf("delete subscriber: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
