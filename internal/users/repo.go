package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
)

var ErrUserNotFound = apperr.NotFound("user")

type User struct {
	ID          string    `json:"id"`
	FirebaseUID string    `json:"firebase_uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type UpsertUser struct {
	FirebaseUID string
	Email       string
	DisplayName string
	PhotoURL    string
}

// EnsureUser upserts by Firebase UID and returns the internal user id.
// Empty profile fields never overwrite stored ones.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (string, error) {
	if u.FirebaseUID == "" {
		return "", fmt.Errorf("firebase_uid required")
	}

	const q = `
insert into users (firebase_uid, email, display_name, photo_url, updated_at)
values ($1, nullif($2,''), nullif($3,''), nullif($4,''), now())
on conflict (firebase_uid) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  photo_url = coalesce(excluded.photo_url, users.photo_url),
  updated_at = now()
returning id::text;
`
	var id string
	if err := r.db.QueryRow(ctx, q, u.FirebaseUID, u.Email, u.DisplayName, u.PhotoURL).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

const userColumns = `id::text, firebase_uid, coalesce(email,''), coalesce(display_name,''), coalesce(photo_url,''), created_at, updated_at`

func (r *Repo) Get(ctx context.Context, id string) (*User, error) {
	return r.scanOne(ctx, `select `+userColumns+` from users where id = $1::uuid`, id)
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(ctx, `select `+userColumns+` from users where lower(email) = lower($1)`, email)
}

func (r *Repo) UpdateProfile(ctx context.Context, id, displayName, photoURL string) (*User, error) {
	const q = `
update users
set display_name = coalesce(nullif($2,''), display_name),
    photo_url = coalesce(nullif($3,''), photo_url),
    updated_at = now()
where id = $1::uuid
returning ` + userColumns
	return r.scanOne(ctx, q, id, displayName, photoURL)
}

// MembershipRole returns the user's role in the company, or "" when the user
// is not a member.
func (r *Repo) MembershipRole(ctx context.Context, companyID, userID string) (string, error) {
	const q = `select role from company_members where company_id = $1::uuid and user_id = $2::uuid`
	var role string
	err := r.db.QueryRow(ctx, q, companyID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

func (r *Repo) scanOne(ctx context.Context, q string, args ...any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, q, args...).
		Scan(&u.ID, &u.FirebaseUID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
