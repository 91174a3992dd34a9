package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpledger/internal/model"
	"erpledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProjectRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Location  string `json:"location"`
	Budget    string `json:"budget"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`
}

type UpdateProjectRequest struct {
	Name      *string `json:"name"`
	Location  *string `json:"location"`
	Budget    *string `json:"budget"`
	Status    *string `json:"status"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

type ProjectResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	Budget    string `json:"budget"`
	Status    string `json:"status"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type ProjectService interface {
	CreateProject(ctx context.Context, req CreateProjectRequest, userID string) (ProjectResponse, error)
	UpdateProject(ctx context.Context, id string, req UpdateProjectRequest, userID string) (ProjectResponse, error)
	GetProject(ctx context.Context, id string) (ProjectResponse, error)
	ListProjects(ctx context.Context, status string, page, limit int) ([]ProjectResponse, int64, error)
	DeleteProject(ctx context.Context, id string, userID string) error
}

type projectService struct {
	projectRepo repository.ProjectRepository
	audit       AuditService
}

func NewProjectService(projectRepo repository.ProjectRepository, audit AuditService) ProjectService {
	return &projectService{projectRepo: projectRepo, audit: audit}
}

// --- Implementation ---

func (s *projectService) CreateProject(ctx context.Context, req CreateProjectRequest, userID string) (ProjectResponse, error) {
	if _, err := s.projectRepo.FindByCode(ctx, req.Code); err == nil {
		return ProjectResponse{}, fmt.Errorf("project code %s already exists", req.Code)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ProjectResponse{}, fmt.Errorf("failed to check project code: %w", err)
	}

	budget := decimal.Zero
	if req.Budget != "" {
		b, err := decimal.NewFromString(req.Budget)
		if err != nil {
			return ProjectResponse{}, fmt.Errorf("invalid budget: %w", err)
		}
		if b.IsNegative() {
			return ProjectResponse{}, errors.New("budget cannot be negative")
		}
		budget = b
	}

	status := req.Status
	if status == "" {
		status = model.ProjectStatusPlanning
	}
	if !isValidProjectStatus(status) {
		return ProjectResponse{}, fmt.Errorf("invalid status %q", status)
	}

	startDate, endDate, err := parseProjectDates(req.StartDate, req.EndDate)
	if err != nil {
		return ProjectResponse{}, err
	}

	project := model.Project{
		Code:      req.Code,
		Name:      req.Name,
		Location:  req.Location,
		Budget:    budget,
		Status:    status,
		StartDate: startDate,
		EndDate:   endDate,
	}

	if err := s.projectRepo.Create(ctx, &project); err != nil {
		return ProjectResponse{}, fmt.Errorf("failed to create project: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionCreateProject, project.ID.String(), project.Code, req)

	return toProjectResponse(project), nil
}

func (s *projectService) UpdateProject(ctx context.Context, id string, req UpdateProjectRequest, userID string) (ProjectResponse, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("invalid project id: %w", err)
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("project not found: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return ProjectResponse{}, errors.New("project name cannot be blank")
		}
		project.Name = *req.Name
	}
	if req.Location != nil {
		project.Location = *req.Location
	}
	if req.Budget != nil {
		b, budgetErr := decimal.NewFromString(*req.Budget)
		if budgetErr != nil {
			return ProjectResponse{}, fmt.Errorf("invalid budget: %w", budgetErr)
		}
		if b.IsNegative() {
			return ProjectResponse{}, errors.New("budget cannot be negative")
		}
		project.Budget = b
	}
	if req.Status != nil {
		if !isValidProjectStatus(*req.Status) {
			return ProjectResponse{}, fmt.Errorf("invalid status %q", *req.Status)
		}
		project.Status = *req.Status
	}
	if req.StartDate != nil || req.EndDate != nil {
		startRaw, endRaw := "", ""
		if req.StartDate != nil {
			startRaw = *req.StartDate
		} else if project.StartDate != nil {
			startRaw = project.StartDate.Format("2006-01-02")
		}
		if req.EndDate != nil {
			endRaw = *req.EndDate
		} else if project.EndDate != nil {
			endRaw = project.EndDate.Format("2006-01-02")
		}
		startDate, endDate, dateErr := parseProjectDates(startRaw, endRaw)
		if dateErr != nil {
			return ProjectResponse{}, dateErr
		}
		project.StartDate = startDate
		project.EndDate = endDate
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return ProjectResponse{}, fmt.Errorf("failed to update project: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionUpdateProject, project.ID.String(), project.Code, req)

	return toProjectResponse(*project), nil
}

func (s *projectService) GetProject(ctx context.Context, id string) (ProjectResponse, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("invalid project id: %w", err)
	}
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("project not found: %w", err)
	}
	return toProjectResponse(*project), nil
}

func (s *projectService) ListProjects(ctx context.Context, status string, page, limit int) ([]ProjectResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	projects, total, err := s.projectRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		res = append(res, toProjectResponse(p))
	}
	return res, total, nil
}

func (s *projectService) DeleteProject(ctx context.Context, id string, userID string) error {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid project id: %w", err)
	}
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("project not found: %w", err)
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionDeleteProject, project.ID.String(), project.Code, nil)

	return nil
}

// --- Helpers ---

func isValidProjectStatus(status string) bool {
	switch status {
	case model.ProjectStatusPlanning, model.ProjectStatusActive, model.ProjectStatusOnHold, model.ProjectStatusCompleted:
		return true
	}
	return false
}

func parseProjectDates(startRaw, endRaw string) (*time.Time, *time.Time, error) {
	var startDate, endDate *time.Time
	if startRaw != "" {
		d, err := time.Parse("2006-01-02", startRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start_date: %w", err)
		}
		startDate = &d
	}
	if endRaw != "" {
		d, err := time.Parse("2006-01-02", endRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end_date: %w", err)
		}
		endDate = &d
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, nil, errors.New("end_date must not be before start_date")
	}
	return startDate, endDate, nil
}

func toProjectResponse(project model.Project) ProjectResponse {
	res := ProjectResponse{
		ID:        project.ID.String(),
		Code:      project.Code,
		Name:      project.Name,
		Location:  project.Location,
		Budget:    project.Budget.StringFixed(2),
		Status:    project.Status,
		CreatedAt: project.CreatedAt.Format(time.RFC3339),
	}
	if project.StartDate != nil {
		res.StartDate = project.StartDate.Format("2006-01-02")
	}
	if project.EndDate != nil {
		res.EndDate = project.EndDate.Format("2006-01-02")
	}
	return res
}
