package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"jobBoard/internal/database"
)

// RecentWindow 是“最近订阅”的统计窗口。
const RecentWindow = 7 * 24 * time.Hour

// Stats 是后台概览的聚合数据。
type Stats struct {
	Subscribers          int64            `json:"subscribers"`
	RecentSubscribers    int64            `json:"recent_subscribers"`
	SubscribersByPref    map[string]int64 `json:"subscribers_by_preference"`
	Jobs                 int64            `json:"jobs"`
	JobsByStatus         map[string]int64 `json:"jobs_by_status"`
	FeaturedJobs         int64            `json:"featured_jobs"`
	FeaturedSharePercent int              `json:"featured_share_percent"`
	TotalViews           int64            `json:"total_views"`
	TotalMatches         int64            `json:"total_matches"`
}

type groupCount struct {
	Name  string
	Total int64
}

// StatsRepository 计算后台概览。
type StatsRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatsRepository 构造 StatsRepository。
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db, now: time.Now}
}

// Compute 汇总订阅与职位统计。
func (r *StatsRepository) Compute(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	st := &Stats{
		SubscribersByPref: map[string]int64{},
		JobsByStatus:      map[string]int64{},
	}

	if err := db.Model(&database.Subscriber{}).Count(&st.Subscribers).Error; err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}
	since := r.now().Add(-RecentWindow)
	if err := db.Model(&database.Subscriber{}).Where("created_at >= ?", since).Count(&st.RecentSubscribers).Error; err != nil {
		return nil, fmt.Errorf("count recent subscribers: %w", err)
	}

	var prefs []groupCount
	if err := db.Model(&database.Subscriber{}).
		Select("preference AS name, COUNT(*) AS total").
		Group("preference").
		Scan(&prefs).Error; err != nil {
		return nil, fmt.Errorf("group subscribers: %w", err)
	}
	for _, p := range prefs {
		st.SubscribersByPref[p.Name] = p.Total
	}

	var statuses []groupCount
	if err := db.Model(&database.Job{}).
		Select("status AS name, COUNT(*) AS total").
		Group("status").
		Scan(&statuses).Error; err != nil {
		return nil, fmt.Errorf("group jobs: %w", err)
	}
	for _, s := range statuses {
		st.JobsByStatus[s.Name] = s.Total
		st.Jobs += s.Total
	}

	if err := db.Model(&database.Job{}).Where("is_featured = ?", true).Count(&st.FeaturedJobs).Error; err != nil {
		return nil, fmt.Errorf("count featured jobs: %w", err)
	}
	if st.Jobs > 0 {
		st.FeaturedSharePercent = int(math.Round(float64(st.FeaturedJobs) * 100 / float64(st.Jobs)))
	}

	var totals struct {
		Views   int64
		Matches int64
	}
	if err := db.Model(&database.Job{}).
		Select("COALESCE(SUM(views), 0) AS views, COALESCE(SUM(matches), 0) AS matches").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("sum job counters: %w", err)
	}
	st.TotalViews = totals.Views
	st.TotalMatches = totals.Matches
	return st, nil
}
