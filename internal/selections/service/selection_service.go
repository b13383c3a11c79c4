package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
	"github.com/corebuild/corebuild-backend/internal/selections/domain"
)

type Repository interface {
	Create(ctx context.Context, s *domain.Selection) error
	Get(ctx context.Context, companyID, id string) (*domain.Selection, error)
	ListByProject(ctx context.Context, companyID, projectID string, f domain.ListFilter) ([]domain.Selection, error)
	ListOverdue(ctx context.Context, companyID, projectID string, today platform.Date) ([]domain.Selection, error)
	Deadlines(ctx context.Context, companyID string, from platform.Date, limit uint64) ([]domain.Deadline, error)
	Update(ctx context.Context, s *domain.Selection, fromStatus string, change *domain.Change) error
	History(ctx context.Context, companyID, selectionID string) ([]domain.Change, error)
	Delete(ctx context.Context, companyID, id string) error

	AddOption(ctx context.Context, companyID, selectionID string, o *domain.Option) error
	GetOption(ctx context.Context, companyID, selectionID, optionID string) (*domain.Option, error)
	ListOptions(ctx context.Context, companyID, selectionID string) ([]domain.Option, error)
	UpdateOption(ctx context.Context, companyID string, o *domain.Option) error
	DeleteOption(ctx context.Context, companyID, selectionID, optionID string) error
}

type ProjectLookup interface {
	Get(ctx context.Context, companyID, id string) (*projectdomain.Project, error)
}

type SelectionService struct {
	repo     Repository
	projects ProjectLookup
	now      func() time.Time
}

func NewSelectionService(repo Repository, projects ProjectLookup) *SelectionService {
	return &SelectionService{repo: repo, projects: projects, now: time.Now}
}

func (s *SelectionService) Create(ctx context.Context, companyID, projectID string, req domain.CreateSelectionRequest) (*domain.Selection, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}

	sel := &domain.Selection{
		CompanyID:      companyID,
		ProjectID:      projectID,
		Category:       normalizeCategory(req.Category),
		Name:           strings.TrimSpace(req.Name),
		Vendor:         strings.TrimSpace(req.Vendor),
		Quantity:       1,
		UnitPriceCents: req.UnitPriceCents,
		AllowanceCents: req.AllowanceCents,
		Status:         domain.StatusPending,
		Notes:          req.Notes,
		DueDate:        req.DueDate,
	}
	if req.Quantity != nil {
		sel.Quantity = *req.Quantity
	}
	if err := validate(sel); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sel); err != nil {
		return nil, err
	}
	sel.Derive()
	return sel, nil
}

// Get loads the selection with its options and change history.
func (s *SelectionService) Get(ctx context.Context, companyID, id string) (*domain.Selection, error) {
	sel, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if sel.Options, err = s.repo.ListOptions(ctx, companyID, id); err != nil {
		return nil, err
	}
	if sel.History, err = s.repo.History(ctx, companyID, id); err != nil {
		return nil, err
	}
	return sel, nil
}

func (s *SelectionService) ListByProject(ctx context.Context, companyID, projectID string, f domain.ListFilter) ([]domain.Selection, error) {
	if f.Status != "" && !domain.Transitions.Known(f.Status) {
		return nil, apperr.Validation("unknown status %q", f.Status)
	}
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	f.Category = normalizeCategory(f.Category)
	return s.repo.ListByProject(ctx, companyID, projectID, f)
}

// Overdue lists the project's selections still awaiting a decision after
// their due date.
func (s *SelectionService) Overdue(ctx context.Context, companyID, projectID string) ([]domain.Selection, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListOverdue(ctx, companyID, projectID, platform.DateOf(s.now()))
}

// Deadlines lists upcoming open selections across the company.
func (s *SelectionService) Deadlines(ctx context.Context, companyID string, limit int) ([]domain.Deadline, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.Deadlines(ctx, companyID, platform.DateOf(s.now()), uint64(limit))
}

// Summary totals every selection of the project.
func (s *SelectionService) Summary(ctx context.Context, companyID, projectID string) (domain.Summary, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return domain.Summary{}, err
	}
	items, err := s.repo.ListByProject(ctx, companyID, projectID, domain.ListFilter{})
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(items), nil
}

func (s *SelectionService) History(ctx context.Context, companyID, id string) ([]domain.Change, error) {
	if _, err := s.repo.Get(ctx, companyID, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, companyID, id)
}

func (s *SelectionService) Update(ctx context.Context, companyID, id, userID string, req domain.UpdateSelectionRequest) (*domain.Selection, error) {
	sel, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	before := *sel

	if sel.PriceLocked() && (req.Quantity != nil || req.UnitPriceCents != nil || req.AllowanceCents != nil) {
		return nil, domain.ErrPriceLocked
	}

	if req.Category != nil {
		sel.Category = normalizeCategory(*req.Category)
	}
	if req.Name != nil {
		sel.Name = strings.TrimSpace(*req.Name)
	}
	if req.Vendor != nil {
		sel.Vendor = strings.TrimSpace(*req.Vendor)
	}
	if req.Quantity != nil {
		sel.Quantity = *req.Quantity
	}
	if req.UnitPriceCents != nil {
		sel.UnitPriceCents = *req.UnitPriceCents
	}
	if req.AllowanceCents != nil {
		sel.AllowanceCents = *req.AllowanceCents
	}
	if req.Notes != nil {
		sel.Notes = *req.Notes
	}
	if req.DueDate != nil {
		sel.DueDate = req.DueDate
	}

	if err := validate(sel); err != nil {
		return nil, err
	}
	fields := domain.Diff(&before, sel)
	if fields == nil {
		sel.Derive()
		return sel, nil
	}

	change := &domain.Change{
		ChangedBy: userID,
		Kind:      domain.ChangeUpdate,
		Fields:    fields,
		Reason:    strings.TrimSpace(req.Reason),
	}
	if err := s.repo.Update(ctx, sel, before.Status, change); err != nil {
		return nil, err
	}
	sel.Derive()
	return sel, nil
}

// ChangeStatus moves the selection along its lifecycle. Rejecting requires a
// reason, which lands in the history.
func (s *SelectionService) ChangeStatus(ctx context.Context, companyID, id, userID, status, reason string) (*domain.Selection, error) {
	reason = strings.TrimSpace(reason)
	if status == domain.StatusRejected && reason == "" {
		return nil, apperr.Validation("a reason is required to reject a selection")
	}

	sel, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !domain.Transitions.Can(sel.Status, status) {
		return nil, apperr.Transition("selection", sel.Status, status)
	}

	from := sel.Status
	sel.Status = status
	change := &domain.Change{
		ChangedBy: userID,
		Kind:      domain.ChangeStatus,
		Fields:    map[string]domain.FieldChange{"status": {From: from, To: status}},
		Reason:    reason,
	}
	if err := s.repo.Update(ctx, sel, from, change); err != nil {
		return nil, err
	}
	sel.Derive()
	return sel, nil
}

// Reject records the client turning the selection down.
func (s *SelectionService) Reject(ctx context.Context, companyID, id, userID, reason string) (*domain.Selection, error) {
	return s.ChangeStatus(ctx, companyID, id, userID, domain.StatusRejected, reason)
}

func (s *SelectionService) Delete(ctx context.Context, companyID, id string) error {
	sel, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if sel.PriceLocked() {
		return apperr.Conflict("ordered selections cannot be deleted")
	}
	return s.repo.Delete(ctx, companyID, id)
}

func (s *SelectionService) AddOption(ctx context.Context, companyID, selectionID string, req domain.OptionRequest) (*domain.Option, error) {
	sel, err := s.repo.Get(ctx, companyID, selectionID)
	if err != nil {
		return nil, err
	}
	if err := optionsEditable(sel); err != nil {
		return nil, err
	}

	o := &domain.Option{}
	applyOption(o, req)
	if err := validateOption(o); err != nil {
		return nil, err
	}
	if err := s.repo.AddOption(ctx, companyID, selectionID, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *SelectionService) UpdateOption(ctx context.Context, companyID, selectionID, optionID string, req domain.OptionRequest) (*domain.Option, error) {
	sel, err := s.repo.Get(ctx, companyID, selectionID)
	if err != nil {
		return nil, err
	}
	if err := optionsEditable(sel); err != nil {
		return nil, err
	}

	o, err := s.repo.GetOption(ctx, companyID, selectionID, optionID)
	if err != nil {
		return nil, err
	}
	applyOption(o, req)
	if err := validateOption(o); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateOption(ctx, companyID, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *SelectionService) DeleteOption(ctx context.Context, companyID, selectionID, optionID string) error {
	sel, err := s.repo.Get(ctx, companyID, selectionID)
	if err != nil {
		return err
	}
	if err := optionsEditable(sel); err != nil {
		return err
	}
	if sel.Status == domain.StatusSelected && sel.SelectedOptionID != nil && *sel.SelectedOptionID == optionID {
		return apperr.Conflict("the chosen option cannot be deleted, pick another first")
	}
	return s.repo.DeleteOption(ctx, companyID, selectionID, optionID)
}

// SelectOption records the client's pick: the option's price and vendor
// replace the selection's and the selection moves to selected.
func (s *SelectionService) SelectOption(ctx context.Context, companyID, selectionID, optionID, userID string) (*domain.Selection, error) {
	sel, err := s.repo.Get(ctx, companyID, selectionID)
	if err != nil {
		return nil, err
	}
	if sel.Status != domain.StatusSelected && !domain.Transitions.Can(sel.Status, domain.StatusSelected) {
		return nil, apperr.Transition("selection", sel.Status, domain.StatusSelected)
	}

	o, err := s.repo.GetOption(ctx, companyID, selectionID, optionID)
	if err != nil {
		return nil, err
	}

	before := *sel
	sel.Status = domain.StatusSelected
	sel.SelectedOptionID = &o.ID
	sel.UnitPriceCents = o.UnitPriceCents
	if o.Vendor != "" {
		sel.Vendor = o.Vendor
	}

	change := &domain.Change{
		ChangedBy: userID,
		Kind:      domain.ChangeOptionSelected,
		Fields:    domain.Diff(&before, sel),
		Reason:    fmt.Sprintf("selected option: %s", o.Name),
	}
	if err := s.repo.Update(ctx, sel, before.Status, change); err != nil {
		return nil, err
	}
	sel.Derive()
	return sel, nil
}

// optionsEditable allows option changes until the client's pick is approved.
func optionsEditable(sel *domain.Selection) error {
	switch sel.Status {
	case domain.StatusPending, domain.StatusSelected, domain.StatusRejected:
		return nil
	}
	return apperr.Conflict("options cannot change once a selection is %s", sel.Status)
}

func applyOption(o *domain.Option, req domain.OptionRequest) {
	if req.Name != nil {
		o.Name = strings.TrimSpace(*req.Name)
	}
	if req.Vendor != nil {
		o.Vendor = strings.TrimSpace(*req.Vendor)
	}
	if req.Description != nil {
		o.Description = *req.Description
	}
	if req.UnitPriceCents != nil {
		o.UnitPriceCents = *req.UnitPriceCents
	}
	if req.Recommended != nil {
		o.Recommended = *req.Recommended
	}
	if req.SortOrder != nil {
		o.SortOrder = *req.SortOrder
	}
}

func validateOption(o *domain.Option) error {
	if o.Name == "" {
		return apperr.Validation("option name is required")
	}
	if o.UnitPriceCents < 0 {
		return apperr.Validation("unit_price_cents must not be negative")
	}
	return nil
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

func validate(s *domain.Selection) error {
	if s.Name == "" {
		return apperr.Validation("name is required")
	}
	if s.Category == "" {
		return apperr.Validation("category is required")
	}
	if s.Quantity <= 0 {
		return apperr.Validation("quantity must be positive")
	}
	if s.UnitPriceCents < 0 || s.AllowanceCents < 0 {
		return apperr.Validation("prices must not be negative")
	}
	return nil
}
