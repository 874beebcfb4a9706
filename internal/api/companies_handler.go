package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"jobBoard/internal/api/middleware"
	"jobBoard/internal/catalog"
	"jobBoard/internal/database"
	"jobBoard/internal/jobs"
	"jobBoard/internal/repository"
)

// CompaniesHandler 提供公司资料读写。
type CompaniesHandler struct {
	companies *repository.CompanyRepository
	catalog   *catalog.Catalog
	logger    *slog.Logger
}

// NewCompaniesHandler 构造 CompaniesHandler。
func NewCompaniesHandler(companies *repository.CompanyRepository, c *catalog.Catalog, logger *slog.Logger) *CompaniesHandler {
	return &CompaniesHandler{companies: companies, catalog: c, logger: logger}
}

type companyPayload struct {
	Name            string             `json:"name" binding:"required,max=255"`
	Logo            string             `json:"logo"`
	Website         string             `json:"website"`
	Description     string             `json:"description"`
	LongDescription string             `json:"long_description"`
	FoundedYear     int                `json:"founded_year"`
	EmployeeCount   string             `json:"employee_count"`
	Headquarters    string             `json:"headquarters"`
	Images          []string           `json:"images"`
	TechStack       []string           `json:"tech_stack"`
	RemoteDNA       database.RemoteDNA `json:"remote_dna"`
	SocialLinks     map[string]string  `json:"social_links"`
}

func companyFromModel(m database.Company) companyPayload {
	links := m.SocialLinks.Data()
	if links == nil {
		links = map[string]string{}
	}
	return companyPayload{
		Name:            m.Name,
		Logo:            m.Logo,
		Website:         m.Website,
		Description:     m.Description,
		LongDescription: m.LongDescription,
		FoundedYear:     m.FoundedYear,
		EmployeeCount:   m.EmployeeCount,
		Headquarters:    m.Headquarters,
		Images:          nonNilStrings(m.Images),
		TechStack:       nonNilStrings(m.TechStack),
		RemoteDNA:       m.RemoteDNA.Data(),
		SocialLinks:     links,
	}
}

func (p companyPayload) model() database.Company {
	return database.Company{
		Name:            strings.TrimSpace(p.Name),
		Logo:            p.Logo,
		Website:         p.Website,
		Description:     p.Description,
		LongDescription: p.LongDescription,
		FoundedYear:     p.FoundedYear,
		EmployeeCount:   p.EmployeeCount,
		Headquarters:    p.Headquarters,
		Images:          datatypes.JSONSlice[string](nonNilStrings(p.Images)),
		TechStack:       datatypes.JSONSlice[string](nonNilStrings(p.TechStack)),
		RemoteDNA:       datatypes.NewJSONType(p.RemoteDNA),
		SocialLinks:     datatypes.NewJSONType(p.SocialLinks),
	}
}

// Get 返回公司资料以及该公司在招职位。
func (h *CompaniesHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	company, err := h.companies.GetByName(ctx, c.Param("name"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "company not found")
			return
		}
		requestLogger(c, h.logger).Error("get company", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	open := []jobs.Listing{}
	if all, err := h.catalog.Published(ctx); err == nil {
		for _, l := range all {
			if strings.EqualFold(l.Company, company.Name) {
				open = append(open, l)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"company": companyFromModel(*company), "jobs": open})
}

// Upsert 创建或更新当前雇主的公司资料。
func (h *CompaniesHandler) Upsert(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req companyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		BadRequest(c, "name is required")
		return
	}

	saved, err := h.companies.Upsert(c.Request.Context(), userID, req.model())
	if err != nil {
		if errors.Is(err, repository.ErrNotOwner) {
			Forbidden(c, "company belongs to another employer")
			return
		}
		requestLogger(c, h.logger).Error("upsert company", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, companyFromModel(*saved))
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
