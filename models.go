package accounts

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleBasic is the default role assigned on registration
	RoleBasic UserRole = "basic"
	// RoleAdmin unlocks the administrative operations
	RoleAdmin UserRole = "admin"
)

// UserStatus is the lifecycle state of a user record. It is stored
// explicitly next to deleted_at instead of being inferred from query scope.
type UserStatus = string

const (
	// UserStatusActive is the initial state, deleted_at is NULL
	UserStatusActive UserStatus = "active"
	// UserStatusDeleted is the soft deleted state, reversible via restore
	UserStatusDeleted UserStatus = "deleted"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Phone         string     `bun:"phone,notnull,unique" json:"phone,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Photo         string     `bun:"photo" json:"photo,omitempty"`
	Role          UserRole   `bun:"type_user,notnull,default:'basic'" json:"type_user,omitempty"`
	Status        UserStatus `bun:"status,notnull,default:'active'" json:"status,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`

	// Password is the transient plaintext; it never reaches storage, the
	// repository hashes it into PasswordHash before any write.
	Password string `bun:"-" json:"-"`
}

// EnsureStatus backfills Status for rows written before the column existed,
// deriving it from deleted_at.
func (u *User) EnsureStatus() {
	if u == nil || u.Status != "" {
		return
	}
	if u.DeletedAt != nil {
		u.Status = UserStatusDeleted
		return
	}
	u.Status = UserStatusActive
}

// IsActive reports whether the record is in the Active lifecycle state.
func (u *User) IsActive() bool {
	if u == nil {
		return false
	}
	u.EnsureStatus()
	return u.Status == UserStatusActive
}

// PublicUser is the outward shape of a user record. PasswordHash and Role
// MUST NOT leave the service in any response; this struct is the only user
// payload handlers are allowed to serialize.
type PublicUser struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Photo     string     `json:"photo,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Public redacts the record for external exposure.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Email:     u.Email,
		Photo:     u.Photo,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// LoginLog is one row of the append only login audit trail. Rows are never
// mutated or deleted; users do not own them.
type LoginLog struct {
	bun.BaseModel `bun:"table:login_logs,alias:llg"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id,omitempty"`
	LoginTime     time.Time  `bun:"login_time,notnull" json:"login_time,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
