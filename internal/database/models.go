package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 用户角色。
const (
	RoleCandidate = "candidate"
	RoleEmployer  = "employer"
	RoleAdmin     = "admin"
)

// User 表示系统中的账号（profiles）。
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
	Role         string `gorm:"size:16;index"`
}

// RemoteDNA 描述公司的远程协作方式，以 JSONB 存储。
type RemoteDNA struct {
	AsyncLevel         string `json:"async_level"`
	MeetingsPerWeek    string `json:"meetings_per_week"`
	CameraPolicy       string `json:"camera_policy"`
	Retreats           string `json:"retreats"`
	CommunicationStyle string `json:"communication_style"`
	Onboarding         string `json:"onboarding"`
}

// Company 表示雇主资料，name 为唯一键。
type Company struct {
	gorm.Model
	Name            string                                `gorm:"uniqueIndex;size:255"`
	OwnerID         uint                                  `gorm:"index"`
	Logo            string                                `gorm:"size:512"`
	Website         string                                `gorm:"size:512"`
	Description     string                                `gorm:"type:text"`
	LongDescription string                                `gorm:"type:text"`
	FoundedYear     int                                   `gorm:"default:0"`
	EmployeeCount   string                                `gorm:"size:64"`
	Headquarters    string                                `gorm:"size:255"`
	Images          datatypes.JSONSlice[string]           `gorm:"type:jsonb"`
	TechStack       datatypes.JSONSlice[string]           `gorm:"type:jsonb"`
	RemoteDNA       datatypes.JSONType[RemoteDNA]         `gorm:"type:jsonb"`
	SocialLinks     datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
}

// Job 表示一个职位。ID 为 nanoid 字符串。
type Job struct {
	ID                  string                      `gorm:"primaryKey;size:32"`
	CreatedAt           time.Time                   `gorm:"index"`
	UpdatedAt           time.Time
	Slug                string                      `gorm:"uniqueIndex;size:255"`
	EmployerID          uint                        `gorm:"index"`
	Title               string                      `gorm:"size:255"`
	Company             string                      `gorm:"size:255;index"`
	Logo                string                      `gorm:"size:512"`
	Location            string                      `gorm:"size:255"`
	Type                string                      `gorm:"size:32"`
	Category            string                      `gorm:"size:64;index"`
	Description         string                      `gorm:"type:text"`
	CompanyDescription  string                      `gorm:"type:text"`
	ApplyURL            string                      `gorm:"size:512"`
	Tags                datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Tools               datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Benefits            datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Salary              string                      `gorm:"size:128"`
	SalaryMin           int64                       `gorm:"not null;default:0"`
	SalaryMax           int64                       `gorm:"not null;default:0"`
	SalaryCurrency      string                      `gorm:"size:8"`
	SalaryPeriod        string                      `gorm:"size:16"`
	PlanType            string                      `gorm:"size:32"`
	PlanPrice           int                         `gorm:"not null;default:0"`
	IsFeatured          bool                        `gorm:"not null;default:false"`
	Status              string                      `gorm:"size:32;index"`
	StripePaymentStatus string                      `gorm:"size:16"`
	StripeSessionID     string                      `gorm:"size:255;index"`
	Views               int64                       `gorm:"not null;default:0"`
	Matches             int64                       `gorm:"not null;default:0"`
	MatchScore          *int
	PostedAt            string                      `gorm:"size:64"`
	Timestamp           int64                       `gorm:"index"`
	PublishedAt         *time.Time                  `gorm:"index"`
}

// SavedJob 记录候选人收藏的职位。
type SavedJob struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex:idx_saved_user_job"`
	JobID     string `gorm:"uniqueIndex:idx_saved_user_job;size:32"`
	CreatedAt time.Time
}

// Application 记录候选人的投递进度。
type Application struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex:idx_application_user_job"`
	JobID     string `gorm:"uniqueIndex:idx_application_user_job;size:32"`
	Status    string `gorm:"size:32"`
	Notes     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subscriber 表示订阅周报的邮箱，email 统一小写存储。
type Subscriber struct {
	ID         uint   `gorm:"primaryKey"`
	Email      string `gorm:"uniqueIndex;size:255"`
	Preference string `gorm:"size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Alert 表示候选人保存的职位提醒条件。
type Alert struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	Query     string `gorm:"size:255"`
	Category  string `gorm:"size:64"`
	System    string `gorm:"size:64"`
	CreatedAt time.Time
}

// AuditLog 记录支付事件引起的职位状态变更。
type AuditLog struct {
	ID            uint   `gorm:"primaryKey"`
	JobID         string `gorm:"index;size:32"`
	Event         string `gorm:"size:64"`
	EventID       string `gorm:"size:255"`
	SessionID     string `gorm:"size:255"`
	Amount        int64
	Currency      string `gorm:"size:8"`
	PaymentStatus string `gorm:"size:32"`
	FromStatus    string `gorm:"size:32"`
	ToStatus      string `gorm:"size:32"`
	CreatedAt     time.Time
}

// ProcessedWebhook 用于 webhook 去重，Key 形如 "completed:<session id>"。
type ProcessedWebhook struct {
	Key       string `gorm:"primaryKey;size:255"`
	EventID   string `gorm:"size:255"`
	CreatedAt time.Time
}
