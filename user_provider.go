package accounts

import (
	"context"
	"strconv"

	"github.com/goliatone/go-errors"
)

// CredentialStore is the slice of the user repository that credential
// verification needs.
type CredentialStore interface {
	GetActiveByPhone(ctx context.Context, phone string) (*User, error)
}

// UserProvider resolves identities from the user store
type UserProvider struct {
	store     CredentialStore
	Validator func(*User) error
	logger    Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store CredentialStore) *UserProvider {
	return &UserProvider{
		store:     store,
		logger:    defLogger{},
		Validator: defaultValidator,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

func (u *UserProvider) validate(user *User) error {
	if u.Validator != nil {
		return u.Validator(user)
	}
	return defaultValidator(user)
}

// VerifyIdentity finds the user by phone and compares the password. An
// unknown phone and a wrong password both collapse into the same invalid
// credentials error so the response never reveals which one failed.
func (u UserProvider) VerifyIdentity(ctx context.Context, phone, password string) (Identity, error) {
	user, err := u.store.GetActiveByPhone(ctx, phone)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return authIdentity{
		id:     user.ID,
		phone:  user.Phone,
		email:  user.Email,
		role:   string(user.Role),
		status: user.Status,
	}, nil
}

// FindIdentityByPhone resolves an identity without checking credentials.
func (u UserProvider) FindIdentityByPhone(ctx context.Context, phone string) (Identity, error) {
	user, err := u.store.GetActiveByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return authIdentity{
		id:     user.ID,
		phone:  user.Phone,
		email:  user.Email,
		role:   string(user.Role),
		status: user.Status,
	}, nil
}

type authIdentity struct {
	id     int64
	phone  string
	email  string
	role   string
	status UserStatus
}

func (a authIdentity) ID() string {
	return strconv.FormatInt(a.id, 10)
}

func (a authIdentity) NumericID() int64 {
	return a.id
}

func (a authIdentity) Phone() string {
	return a.phone
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() string {
	return a.role
}

func (a authIdentity) Status() UserStatus {
	if a.status == "" {
		return UserStatusActive
	}
	return a.status
}

var _ Identity = authIdentity{}

func defaultValidator(u *User) error {
	switch u.Role {
	case RoleAdmin, RoleBasic:
		return nil
	default:
		return errors.New("user has an unknown or invalid role", errors.CategoryAuth).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"role": u.Role, "user_id": u.ID})
	}
}

func ensureAuthenticatableUser(user *User) error {
	if user == nil {
		return ErrInvalidCredentials
	}

	user.EnsureStatus()
	if err := statusAuthError(user.Status); err != nil {
		return err
	}

	return nil
}
