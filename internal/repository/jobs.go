// Package repository wraps gorm access to the job board tables.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobBoard/internal/database"
	"jobBoard/internal/jobs"
	"jobBoard/internal/plan"
)

// ErrNotFound 表示目标记录不存在。
var ErrNotFound = errors.New("record not found")

const (
	columnViews   = "views"
	columnMatches = "matches"
)

// JobRepository 负责 jobs 表的读写。
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository 构造 JobRepository。
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// ListPublished 返回全部已发布职位，供内存中的筛选与排序使用。
func (r *JobRepository) ListPublished(ctx context.Context) ([]jobs.Listing, error) {
	var rows []database.Job
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(jobs.StatusPublished)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list published jobs: %w", err)
	}
	return ToListings(rows), nil
}

// ListByIDs 按 ID 返回已发布职位，忽略不存在的 ID。
func (r *JobRepository) ListByIDs(ctx context.Context, ids []string) ([]jobs.Listing, error) {
	if len(ids) == 0 {
		return []jobs.Listing{}, nil
	}
	var rows []database.Job
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, string(jobs.StatusPublished)).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list jobs by id: %w", err)
	}
	return ToListings(rows), nil
}

// ListByEmployer 返回雇主自己的全部职位（含草稿），最新的在前。
func (r *JobRepository) ListByEmployer(ctx context.Context, employerID uint) ([]database.Job, error) {
	var rows []database.Job
	if err := r.db.WithContext(ctx).
		Where("employer_id = ?", employerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list employer jobs: %w", err)
	}
	return rows, nil
}

// PublishedSince 返回 published_at 晚于 since 的职位，按发布时间升序。
func (r *JobRepository) PublishedSince(ctx context.Context, since time.Time) ([]database.Job, error) {
	var rows []database.Job
	if err := r.db.WithContext(ctx).
		Where("status = ? AND published_at > ?", string(jobs.StatusPublished), since).
		Order("published_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list jobs published since %s: %w", since.Format(time.RFC3339), err)
	}
	return rows, nil
}

// Get 按 ID 读取职位，不区分状态。
func (r *JobRepository) Get(ctx context.Context, id string) (*database.Job, error) {
	var job database.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job %q: %w", id, err)
	}
	return &job, nil
}

// CreateDraft 保存发布流程提交的职位，初始状态为 draft/unpaid。
// 薪资字符串在此解析为结构化字段。
func (r *JobRepository) CreateDraft(ctx context.Context, listing jobs.Listing, employerID uint, p plan.Plan) (*database.Job, error) {
	job := FromListing(listing)
	job.EmployerID = employerID
	job.PlanType = string(p.Type)
	job.PlanPrice = p.Price
	job.IsFeatured = plan.IsFeatured(p.Type)
	job.Status = string(jobs.StatusDraft)
	job.StripePaymentStatus = string(jobs.PaymentUnpaid)
	job.Slug = jobSlug(listing.Title, listing.ID)
	if s, ok := jobs.ParseSalary(listing.Salary); ok {
		job.SalaryMin = s.Min
		job.SalaryMax = s.Max
		job.SalaryCurrency = s.Currency
		job.SalaryPeriod = string(s.Period)
	}

	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return &job, nil
}

// Publish 审核通过：仅已支付的 pending_review 职位可以发布。
func (r *JobRepository) Publish(ctx context.Context, id string, at time.Time) (*database.Job, error) {
	res := r.db.WithContext(ctx).Model(&database.Job{}).
		Where("id = ? AND status = ? AND stripe_payment_status = ?",
			id, string(jobs.StatusPendingReview), string(jobs.PaymentPaid)).
		Updates(map[string]any{
			"status":       string(jobs.StatusPublished),
			"published_at": at.UTC(),
			"timestamp":    at.Unix(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("publish job: %w", res.Error)
	}
	job, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	return job, nil
}

// AttachCheckoutSession 记录 Stripe Checkout Session ID。
func (r *JobRepository) AttachCheckoutSession(ctx context.Context, id, sessionID string) error {
	res := r.db.WithContext(ctx).Model(&database.Job{}).
		Where("id = ?", id).
		Update("stripe_session_id", sessionID)
	if res.Error != nil {
		return fmt.Errorf("attach checkout session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除职位及其收藏、投递记录。
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&database.Job{})
		if res.Error != nil {
			return fmt.Errorf("delete job: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("job_id = ?", id).Delete(&database.SavedJob{}).Error; err != nil {
			return fmt.Errorf("delete saved jobs: %w", err)
		}
		if err := tx.Where("job_id = ?", id).Delete(&database.Application{}).Error; err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		return nil
	})
}

// IncrementViews 原子地将浏览数加一并返回新值；仅对已发布职位生效。
func (r *JobRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	return r.increment(ctx, id, columnViews, 1)
}

// IncrementMatches 原子地将匹配数增加 by 并返回新值；仅对已发布职位生效。
func (r *JobRepository) IncrementMatches(ctx context.Context, id string, by int64) (int64, error) {
	return r.increment(ctx, id, columnMatches, by)
}

func (r *JobRepository) increment(ctx context.Context, id, column string, by int64) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&database.Job{}).
			Where("id = ? AND status = ?", id, string(jobs.StatusPublished)).
			UpdateColumn(column, gorm.Expr(column+" + ?", by))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&database.Job{}).
			Select(column).
			Where("id = ?", id).
			Scan(&value).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("increment %s: %w", column, err)
	}
	return value, nil
}

// ToListing 将数据库行转换为目录视图。
func ToListing(j database.Job) jobs.Listing {
	return jobs.Listing{
		ID:                 j.ID,
		Slug:               j.Slug,
		Title:              j.Title,
		Company:            j.Company,
		Logo:               j.Logo,
		Location:           j.Location,
		Type:               j.Type,
		Category:           j.Category,
		Description:        j.Description,
		CompanyDescription: j.CompanyDescription,
		ApplyURL:           j.ApplyURL,
		Tags:               stringsOrEmpty(j.Tags),
		Tools:              stringsOrEmpty(j.Tools),
		Benefits:           stringsOrEmpty(j.Benefits),
		Salary:             j.Salary,
		SalaryMin:          j.SalaryMin,
		SalaryMax:          j.SalaryMax,
		SalaryCurrency:     j.SalaryCurrency,
		SalaryPeriod:       jobs.Period(j.SalaryPeriod),
		PlanType:           plan.Type(j.PlanType),
		IsFeatured:         j.IsFeatured,
		Views:              j.Views,
		Matches:            j.Matches,
		PostedAt:           j.PostedAt,
		Timestamp:          j.Timestamp,
		MatchScore:         j.MatchScore,
	}
}

// ToListings 批量转换。
func ToListings(rows []database.Job) []jobs.Listing {
	out := make([]jobs.Listing, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToListing(row))
	}
	return out
}

// FromListing 将目录视图转换为数据库行（不含状态与归属字段）。
func FromListing(l jobs.Listing) database.Job {
	return database.Job{
		ID:                 l.ID,
		Slug:               l.Slug,
		Title:              l.Title,
		Company:            l.Company,
		Logo:               l.Logo,
		Location:           l.Location,
		Type:               l.Type,
		Category:           l.Category,
		Description:        l.Description,
		CompanyDescription: l.CompanyDescription,
		ApplyURL:           l.ApplyURL,
		Tags:               datatypes.JSONSlice[string](stringsOrEmpty(l.Tags)),
		Tools:              datatypes.JSONSlice[string](stringsOrEmpty(l.Tools)),
		Benefits:           datatypes.JSONSlice[string](stringsOrEmpty(l.Benefits)),
		Salary:             l.Salary,
		SalaryMin:          l.SalaryMin,
		SalaryMax:          l.SalaryMax,
		SalaryCurrency:     l.SalaryCurrency,
		SalaryPeriod:       string(l.SalaryPeriod),
		PlanType:           string(l.PlanType),
		IsFeatured:         l.IsFeatured,
		Views:              l.Views,
		Matches:            l.Matches,
		MatchScore:         l.MatchScore,
		PostedAt:           l.PostedAt,
		Timestamp:          l.Timestamp,
	}
}

func jobSlug(title, id string) string {
	base := slug.Make(strings.TrimSpace(title))
	if base == "" {
		return id
	}
	return base + "-" + id
}

func stringsOrEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
