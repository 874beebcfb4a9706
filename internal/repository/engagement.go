package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"jobBoard/internal/database"
	"jobBoard/internal/jobs"
)

// ErrInvalidTransition 表示当前状态不允许此次变更（投递进度或职位审核）。
var ErrInvalidTransition = errors.New("invalid status transition")

// EngagementRepository 负责候选人的收藏、投递与提醒。
type EngagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository 构造 EngagementRepository。
func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// ToggleSaved 收藏或取消收藏，返回操作后的收藏 ID 集合以及当前是否已收藏。
func (r *EngagementRepository) ToggleSaved(ctx context.Context, userID uint, jobID string) ([]string, bool, error) {
	saved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 已收藏的职位即使下线也允许取消收藏。
		res := tx.Where("user_id = ? AND job_id = ?", userID, jobID).Delete(&database.SavedJob{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := requirePublished(tx, jobID); err != nil {
			return err
		}
		saved = true
		return tx.Create(&database.SavedJob{UserID: userID, JobID: jobID}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("toggle saved job: %w", err)
	}

	ids, err := r.SavedIDs(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return ids, saved, nil
}

// SavedIDs 返回用户收藏的职位 ID。
func (r *EngagementRepository) SavedIDs(ctx context.Context, userID uint) ([]string, error) {
	ids := make([]string, 0)
	if err := r.db.WithContext(ctx).
		Model(&database.SavedJob{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("job_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list saved jobs: %w", err)
	}
	return ids, nil
}

// Apply 创建投递记录；重复投递返回已有记录。
func (r *EngagementRepository) Apply(ctx context.Context, userID uint, jobID string) (*database.Application, error) {
	var app database.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePublished(tx, jobID); err != nil {
			return err
		}
		return tx.Where(database.Application{UserID: userID, JobID: jobID}).
			Attrs(database.Application{Status: string(jobs.ApplicationApplied)}).
			FirstOrCreate(&app).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("apply: %w", err)
	}
	return &app, nil
}

// Applications 返回用户全部投递，最近更新的在前。
func (r *EngagementRepository) Applications(ctx context.Context, userID uint) ([]database.Application, error) {
	var apps []database.Application
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// MoveApplication 按状态机推进投递状态。
func (r *EngagementRepository) MoveApplication(ctx context.Context, userID, appID uint, to jobs.ApplicationStatus, notes *string) (*database.Application, error) {
	var app database.Application
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", appID, userID).
		First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}

	updates := map[string]any{}
	if jobs.ApplicationStatus(app.Status) != to {
		if !jobs.CanMoveApplication(jobs.ApplicationStatus(app.Status), to) {
			return nil, ErrInvalidTransition
		}
		updates["status"] = string(to)
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	if len(updates) == 0 {
		return &app, nil
	}
	if err := r.db.WithContext(ctx).Model(&app).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	return &app, nil
}

// CreateAlert 保存一条提醒条件。
func (r *EngagementRepository) CreateAlert(ctx context.Context, alert *database.Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// Alerts 返回用户的提醒条件。
func (r *EngagementRepository) Alerts(ctx context.Context, userID uint) ([]database.Alert, error) {
	var alerts []database.Alert
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// AllAlerts 返回全部提醒条件，供后台匹配使用。
func (r *EngagementRepository) AllAlerts(ctx context.Context) ([]database.Alert, error) {
	var alerts []database.Alert
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("list all alerts: %w", err)
	}
	return alerts, nil
}

// DeleteAlert 删除用户自己的提醒条件。
func (r *EngagementRepository) DeleteAlert(ctx context.Context, userID, alertID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", alertID, userID).Delete(&database.Alert{})
	if res.Error != nil {
		return fmt.Errorf("delete alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// requirePublished 仅已发布职位可被收藏或投递；草稿与待审核职位视为不存在。
func requirePublished(tx *gorm.DB, jobID string) error {
	var exists int64
	if err := tx.Model(&database.Job{}).
		Where("id = ? AND status = ?", jobID, string(jobs.StatusPublished)).
		Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	return nil
}
