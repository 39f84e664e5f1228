package handler

import (
	"time"

	"atelier/internal/project/models"
)

// ProjectResponse is the HTTP representation of a project.
type ProjectResponse struct {
	ID          string          `json:"id"`
	Owner       string          `json:"owner"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Status      string          `json:"status"`
	SharedWith  []ShareResponse `json:"shared_with"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ShareResponse is one sharing ledger entry in a project response.
type ShareResponse struct {
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// FromProject converts a domain project to an HTTP response.
func FromProject(p *models.Project) *ProjectResponse {
	shares := make([]ShareResponse, len(p.SharedWith))
	for i, entry := range p.SharedWith {
		perms := make([]string, len(entry.Permissions))
		for j, perm := range entry.Permissions {
			perms[j] = string(perm)
		}
		shares[i] = ShareResponse{UserID: entry.UserID.String(), Permissions: perms}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return &ProjectResponse{
		ID:          p.ID.String(),
		Owner:       p.OwnerID.String(),
		Name:        p.Name,
		Description: p.Description,
		Tags:        tags,
		Status:      string(p.Status),
		SharedWith:  shares,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// PageResponse is one page of a project listing.
type PageResponse struct {
	Data  []*ProjectResponse `json:"data"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Pages int                `json:"pages"`
}

// FromPage converts a domain listing page to an HTTP response.
func FromPage(page *models.ProjectPage) *PageResponse {
	data := make([]*ProjectResponse, len(page.Data))
	for i, p := range page.Data {
		data[i] = FromProject(p)
	}
	return &PageResponse{
		Data:  data,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages,
	}
}
