package service

import (
	"context"
	"strings"
	"time"

	"github.com/corebuild/corebuild-backend/internal/dailylogs/domain"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type Repository interface {
	Create(ctx context.Context, l *domain.DailyLog) error
	Get(ctx context.Context, companyID, id string) (*domain.DailyLog, error)
	ListByProject(ctx context.Context, companyID, projectID string, f domain.ListFilter) ([]domain.DailyLog, error)
	Update(ctx context.Context, l *domain.DailyLog) error
	Delete(ctx context.Context, companyID, id string) error
}

type ProjectLookup interface {
	Get(ctx context.Context, companyID, id string) (*projectdomain.Project, error)
}

type DailyLogService struct {
	repo     Repository
	projects ProjectLookup
	now      func() time.Time
}

func NewDailyLogService(repo Repository, projects ProjectLookup) *DailyLogService {
	return &DailyLogService{repo: repo, projects: projects, now: time.Now}
}

func (s *DailyLogService) Create(ctx context.Context, companyID, projectID string, req domain.CreateDailyLogRequest) (*domain.DailyLog, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}

	l := &domain.DailyLog{
		CompanyID:     companyID,
		ProjectID:     projectID,
		LogDate:       req.LogDate,
		Weather:       strings.TrimSpace(req.Weather),
		TemperatureF:  req.TemperatureF,
		CrewCount:     req.CrewCount,
		HoursWorked:   req.HoursWorked,
		WorkPerformed: strings.TrimSpace(req.WorkPerformed),
		Delays:        strings.TrimSpace(req.Delays),
		SafetyNotes:   strings.TrimSpace(req.SafetyNotes),
		AuthorID:      req.AuthorID,
	}
	if l.LogDate.IsZero() {
		l.LogDate = platform.DateOf(s.now())
	}
	if l.LogDate.After(s.now().Add(24 * time.Hour)) {
		return nil, apperr.Validation("log_date must not be in the future")
	}
	if err := validate(l); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *DailyLogService) Get(ctx context.Context, companyID, id string) (*domain.DailyLog, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *DailyLogService) ListByProject(ctx context.Context, companyID, projectID string, f domain.ListFilter) ([]domain.DailyLog, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, apperr.Validation("to must not precede from")
	}
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, companyID, projectID, f)
}

func (s *DailyLogService) Update(ctx context.Context, companyID, id string, req domain.UpdateDailyLogRequest) (*domain.DailyLog, error) {
	l, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.Weather != nil {
		l.Weather = strings.TrimSpace(*req.Weather)
	}
	if req.TemperatureF != nil {
		l.TemperatureF = req.TemperatureF
	}
	if req.CrewCount != nil {
		l.CrewCount = *req.CrewCount
	}
	if req.HoursWorked != nil {
		l.HoursWorked = *req.HoursWorked
	}
	if req.WorkPerformed != nil {
		l.WorkPerformed = strings.TrimSpace(*req.WorkPerformed)
	}
	if req.Delays != nil {
		l.Delays = strings.TrimSpace(*req.Delays)
	}
	if req.SafetyNotes != nil {
		l.SafetyNotes = strings.TrimSpace(*req.SafetyNotes)
	}

	if err := validate(l); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *DailyLogService) Delete(ctx context.Context, companyID, id string) error {
	return s.repo.Delete(ctx, companyID, id)
}

func validate(l *domain.DailyLog) error {
	if l.CrewCount < 0 {
		return apperr.Validation("crew_count must not be negative")
	}
	if l.HoursWorked < 0 {
		return apperr.Validation("hours_worked must not be negative")
	}
	if l.TemperatureF != nil && (*l.TemperatureF < -80 || *l.TemperatureF > 150) {
		return apperr.Validation("temperature_f is out of range")
	}
	return nil
}
