package domain

import (
	"math"
	"time"

	"github.com/corebuild/corebuild-backend/internal/platform"
)

type Board struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	SharedAt    *time.Time `json:"shared_at,omitempty"`
	Items       []Item     `json:"items"`
	Comments    []Comment  `json:"comments,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Item struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	ImageURL  string    `json:"image_url"`
	Caption   string    `json:"caption"`
	Tags      []string  `json:"tags"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is client or crew feedback on a board, optionally pinned to one item.
type Comment struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	ItemID    *string   `json:"item_id,omitempty"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

const MaxCommentLength = 2000

const (
	StatusDraft            = "draft"
	StatusShared           = "shared"
	StatusApproved         = "approved"
	StatusChangesRequested = "changes_requested"
	StatusArchived         = "archived"
)

var Transitions = platform.Transitions{
	StatusDraft:            {StatusShared, StatusArchived},
	StatusShared:           {StatusApproved, StatusChangesRequested, StatusArchived},
	StatusChangesRequested: {StatusShared, StatusArchived},
	StatusApproved:         {StatusArchived},
}

// ItemsEditable reports whether items may be added, removed or reordered.
func ItemsEditable(status string) bool {
	return status == StatusDraft || status == StatusChangesRequested
}

// Commentable reports whether a board still accepts comments.
func Commentable(status string) bool {
	return status != StatusArchived
}

// CopyTitle names a duplicated board.
func CopyTitle(title string) string {
	return title + " (Copy)"
}

// CheckOrder verifies that order is a permutation of the current item ids.
func CheckOrder(current, order []string) error {
	if len(order) != len(current) {
		return ErrInvalidOrder
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = false
	}
	for _, id := range order {
		used, ok := seen[id]
		if !ok || used {
			return ErrInvalidOrder
		}
		seen[id] = true
	}
	return nil
}

type CreateBoardRequest struct {
	Title       string
	Description string
}

type UpdateBoardRequest struct {
	Title       *string
	Description *string
}

type AddItemRequest struct {
	ImageURL string
	Caption  string
	Tags     []string
}

// StatusCount is one row of the per-status board tally.
type StatusCount struct {
	Status   string
	Boards   int
	Items    int
	Comments int
}

type Summary struct {
	TotalBoards      int            `json:"total_boards"`
	TotalItems       int            `json:"total_items"`
	TotalComments    int            `json:"total_comments"`
	ByStatus         map[string]int `json:"by_status"`
	AvgItemsPerBoard float64        `json:"avg_items_per_board"`
	PendingApproval  int            `json:"pending_approval"`
}

func Summarize(counts []StatusCount) Summary {
	s := Summary{ByStatus: map[string]int{}}
	for _, st := range []string{StatusDraft, StatusShared, StatusApproved, StatusChangesRequested, StatusArchived} {
		s.ByStatus[st] = 0
	}
	for _, c := range counts {
		s.ByStatus[c.Status] += c.Boards
		s.TotalBoards += c.Boards
		s.TotalItems += c.Items
		s.TotalComments += c.Comments
	}
	s.PendingApproval = s.ByStatus[StatusShared]
	if s.TotalBoards > 0 {
		s.AvgItemsPerBoard = math.Round(float64(s.TotalItems)/float64(s.TotalBoards)*100) / 100
	}
	return s
}

// PendingBoard is a shared board waiting on the client.
type PendingBoard struct {
	Board
	ProjectName string `json:"project_name"`
	ItemCount   int    `json:"item_count"`
}

type AddCommentRequest struct {
	ItemID *string
	Body   string
}
