package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

var softDeleteUserSQL = `UPDATE "users" AS "usr"
SET
	"status" = ?,
	"deleted_at" = ?,
	"updated_at" = ?
WHERE
	"usr"."id" = ?
AND "usr"."deleted_at" IS NULL;`

var restoreUserSQL = `UPDATE "users" AS "usr"
SET
	"status" = ?,
	"deleted_at" = NULL,
	"updated_at" = ?
WHERE
	"usr"."id" = ?
AND "usr"."deleted_at" IS NOT NULL;`

// Users owns user records and their Active/Deleted lifecycle. Lookups named
// Active* only see live rows; GetAnyByID sees soft deleted rows too and is
// what delete/restore use to inspect current state before transitioning.
//
// Uniqueness policy: phone and email are checked against the FULL table,
// soft deleted rows included. A deleted account keeps ownership of its phone
// and email so a later restore cannot collide.
type Users interface {
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	Update(ctx context.Context, id int64, patch *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, id int64, patch *User) (*User, error)

	GetActiveByID(ctx context.Context, id int64) (*User, error)
	GetActiveByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error)
	GetActiveByPhone(ctx context.Context, phone string) (*User, error)
	GetActiveByPhoneTx(ctx context.Context, tx bun.IDB, phone string) (*User, error)
	GetAnyByID(ctx context.Context, id int64) (*User, error)
	GetAnyByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error)

	ListActive(ctx context.Context) ([]*User, error)
	ListActiveTx(ctx context.Context, tx bun.IDB) ([]*User, error)

	UpdateStatus(ctx context.Context, id int64, status UserStatus, opts ...StatusUpdateOption) (*User, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id int64, status UserStatus, opts ...StatusUpdateOption) (*User, error)

	SoftDelete(ctx context.Context, actor ActorRef, id int64, opts ...TransitionOption) (*User, error)
	Restore(ctx context.Context, actor ActorRef, id int64, opts ...TransitionOption) (*User, error)
}

type users struct {
	db                  *bun.DB
	stateMachine        UserStateMachine
	stateMachineOptions []StateMachineOption
}

var _ Users = (*users)(nil)

type UsersOption func(*users)

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := &users{db: db}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

func WithUsersStateMachineOptions(options ...StateMachineOption) UsersOption {
	return func(u *users) {
		if len(options) == 0 {
			return
		}
		u.stateMachineOptions = append(u.stateMachineOptions, options...)
		u.stateMachine = nil
	}
}

func WithUsersStateMachine(sm UserStateMachine) UsersOption {
	return func(u *users) {
		u.stateMachine = sm
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if err := validateRequiredFields(user); err != nil {
		return nil, err
	}

	prepareUserDefaults(user)

	if !IsValidRole(user.Role) {
		return nil, ErrInvalidRole.WithMetadata(map[string]any{"role": user.Role})
	}

	if err := prepareUserSecrets(user); err != nil {
		return nil, err
	}

	if err := a.assertUniqueIdentifiersTx(ctx, tx, user.Phone, user.Email, 0); err != nil {
		return nil, err
	}

	if _, err := tx.NewInsert().Model(user).Returning("*").Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist user")
	}

	return user, nil
}

func (a *users) Update(ctx context.Context, id int64, patch *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, id, patch)
}

// UpdateTx locates the row by id regardless of lifecycle state; the id and
// created_at are immutable, every other provided field overwrites the stored
// one. A new plaintext password is re-hashed before the write.
func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, id int64, patch *User) (*User, error) {
	if _, err := a.GetAnyByIDTx(ctx, tx, id); err != nil {
		return nil, err
	}

	if patch.Role != "" && !IsValidRole(patch.Role) {
		return nil, ErrInvalidRole.WithMetadata(map[string]any{"role": patch.Role})
	}

	if err := prepareUserSecrets(patch); err != nil {
		return nil, err
	}

	if patch.Phone != "" || patch.Email != "" {
		if err := a.assertUniqueIdentifiersTx(ctx, tx, patch.Phone, patch.Email, id); err != nil {
			return nil, err
		}
	}

	patch.ID = 0
	patch.CreatedAt = nil
	now := time.Now()
	patch.UpdatedAt = &now

	if _, err := tx.NewUpdate().
		Model(patch).
		OmitZero().
		Where("?TableAlias.id = ?", id).
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	return a.GetAnyByIDTx(ctx, tx, id)
}

func (a *users) GetActiveByID(ctx context.Context, id int64) (*User, error) {
	return a.GetActiveByIDTx(ctx, a.db, id)
}

func (a *users) GetActiveByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	return a.loaded(record, err, map[string]any{"id": id})
}

func (a *users) GetActiveByPhone(ctx context.Context, phone string) (*User, error) {
	return a.GetActiveByPhoneTx(ctx, a.db, phone)
}

func (a *users) GetActiveByPhoneTx(ctx context.Context, tx bun.IDB, phone string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.phone = ?", phone).
		Limit(1).
		Scan(ctx)
	return a.loaded(record, err, map[string]any{"phone": phone})
}

func (a *users) GetAnyByID(ctx context.Context, id int64) (*User, error) {
	return a.GetAnyByIDTx(ctx, a.db, id)
}

func (a *users) GetAnyByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		WhereAllWithDeleted().
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	return a.loaded(record, err, map[string]any{"id": id})
}

func (a *users) ListActive(ctx context.Context) ([]*User, error) {
	return a.ListActiveTx(ctx, a.db)
}

func (a *users) ListActiveTx(ctx context.Context, tx bun.IDB) ([]*User, error) {
	var records []*User
	err := tx.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}
	for _, r := range records {
		r.EnsureStatus()
	}
	return records, nil
}

func (a *users) UpdateStatus(ctx context.Context, id int64, status UserStatus, opts ...StatusUpdateOption) (*User, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status, opts...)
}

// UpdateStatusTx is a single row conditional update: the WHERE clause on
// deleted_at is the only concurrency guard, there is no application level
// lock or version column. A lost race surfaces as an invalid transition.
func (a *users) UpdateStatusTx(ctx context.Context, tx bun.IDB, id int64, status UserStatus, opts ...StatusUpdateOption) (*User, error) {
	record := &User{ID: id, Status: status}
	for _, opt := range opts {
		if opt != nil {
			opt(record)
		}
	}

	now := time.Now()

	var res sql.Result
	var err error
	if status == UserStatusDeleted {
		deletedAt := record.DeletedAt
		if deletedAt == nil {
			deletedAt = &now
		}
		res, err = tx.NewRaw(softDeleteUserSQL, status, deletedAt, now, id).Exec(ctx)
	} else {
		res, err = tx.NewRaw(restoreUserSQL, status, now, id).Exec(ctx)
	}

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user status")
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"id": id,
			"to": status,
		})
	}

	return a.GetAnyByIDTx(ctx, tx, id)
}

func (a *users) SoftDelete(ctx context.Context, actor ActorRef, id int64, opts ...TransitionOption) (*User, error) {
	user, err := a.GetAnyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.lifecycleMachine().Transition(ctx, actor, user, UserStatusDeleted, opts...)
}

func (a *users) Restore(ctx context.Context, actor ActorRef, id int64, opts ...TransitionOption) (*User, error) {
	user, err := a.GetAnyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.lifecycleMachine().Transition(ctx, actor, user, UserStatusActive, opts...)
}

// StatusUpdateOption allows callers to mutate the user record before
// persisting status changes.
type StatusUpdateOption func(*User)

// WithDeletedAt sets the DeletedAt timestamp during a status transition.
func WithDeletedAt(at *time.Time) StatusUpdateOption {
	return func(u *User) {
		u.DeletedAt = at
	}
}

func (a *users) assertUniqueIdentifiersTx(ctx context.Context, tx bun.IDB, phone, email string, excludeID int64) error {
	q := tx.NewSelect().
		Model((*User)(nil)).
		WhereAllWithDeleted()

	switch {
	case phone != "" && email != "":
		q = q.Where("(?TableAlias.phone = ? OR ?TableAlias.email = ?)", phone, email)
	case phone != "":
		q = q.Where("?TableAlias.phone = ?", phone)
	case email != "":
		q = q.Where("?TableAlias.email = ?", email)
	default:
		return nil
	}

	if excludeID != 0 {
		q = q.Where("?TableAlias.id != ?", excludeID)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check identifier uniqueness")
	}

	if exists {
		return ErrDuplicateIdentifier.WithMetadata(map[string]any{
			"phone": phone,
			"email": email,
		})
	}

	return nil
}

func (a *users) loaded(record *User, err error, meta map[string]any) (*User, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound.WithMetadata(meta)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}
	record.EnsureStatus()
	return record, nil
}

func validateRequiredFields(record *User) error {
	if record == nil {
		return goerrors.New("user record is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	missing := []string{}
	if record.Name == "" {
		missing = append(missing, "name")
	}
	if record.LastName == "" {
		missing = append(missing, "last_name")
	}
	if record.Phone == "" {
		missing = append(missing, "phone")
	}
	if record.Email == "" {
		missing = append(missing, "email")
	}
	if record.Password == "" && record.PasswordHash == "" {
		missing = append(missing, "password")
	}

	if len(missing) > 0 {
		return goerrors.New("missing required user fields", goerrors.CategoryValidation).
			WithTextCode("MISSING_FIELDS").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"fields": missing})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleBasic
	}

	record.EnsureStatus()
}

// prepareUserSecrets hashes the transient plaintext password, if present,
// into PasswordHash so no write path can persist a plaintext value.
func prepareUserSecrets(record *User) error {
	if record == nil || record.Password == "" {
		return nil
	}

	hash, err := HashPassword(record.Password)
	if err != nil {
		return err
	}

	record.PasswordHash = hash
	record.Password = ""
	return nil
}

func (a *users) lifecycleMachine() UserStateMachine {
	if a.stateMachine == nil {
		a.stateMachine = NewUserStateMachine(a, a.stateMachineOptions...)
	}
	return a.stateMachine
}
