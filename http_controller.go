package accounts

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// maxPhotoUploadBytes caps the multipart form we are willing to buffer for
// a profile photo upload.
const maxPhotoUploadBytes = 8 << 20

// DefaultPhoneRegion is the region used to interpret phone numbers that are
// submitted without a country prefix.
var DefaultPhoneRegion = "MX"

// RegisterAPIRoutes mounts every route of the API on the given router.
// Registration and login are open; everything under /users requires a
// bearer token and the mutating user routes require the admin role.
func RegisterAPIRoutes[T any](app router.Router[T], opts ...ControllerOption) {
	c := NewControllers(opts...)

	protected := Protected(c.Config, c.Auther.TokenService(), c.Logger)
	admin := AdminOnly(c.Config, c.Auther.TokenService(), c.Logger)

	app.Post("/auth/register", c.Auth.Register).SetName("auth.register")
	app.Post("/auth/login", c.Auth.Login).SetName("auth.login")

	// export before :id so the static segment is not captured as a param
	app.Get("/users/export.pdf", c.Users.ExportPDF, admin).SetName("users.export")

	app.Get("/users", c.Users.List, protected).SetName("users.list")
	app.Get("/users/:id", c.Users.Show, protected).SetName("users.show")
	app.Put("/users/:id", c.Users.Update, admin).SetName("users.update")
	app.Delete("/users/:id", c.Users.Delete, admin).SetName("users.delete")
	app.Put("/users/:id/restore", c.Users.Restore, admin).SetName("users.restore")
	app.Get("/users/:id/last-login", c.Users.LastLogin, admin).SetName("users.last_login")
	app.Post("/users/:id/photo", c.Users.UploadPhoto, protected).SetName("users.photo")
}

// Controllers bundles the API controllers and their shared collaborators.
type Controllers struct {
	Logger Logger
	Config Config
	Repo   RepositoryManager
	Auther Authenticator
	Auth   *AuthController
	Users  *UsersController
}

type ControllerOption func(*Controllers) *Controllers

func NewControllers(opts ...ControllerOption) *Controllers {
	c := &Controllers{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in API controllers...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in API controllers...")
	}

	if c.Config == nil {
		panic("Missing Config in API controllers...")
	}

	if c.Auth == nil {
		c.Auth = &AuthController{
			Logger: c.Logger,
			Repo:   c.Repo,
			Auther: c.Auther,
		}
	}

	if c.Users == nil {
		c.Users = &UsersController{
			Logger:    c.Logger,
			Repo:      c.Repo,
			UploadDir: "uploads",
		}
	}

	return c
}

func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controllers) *Controllers {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerConfig(cfg Config) ControllerOption {
	return func(c *Controllers) *Controllers {
		c.Config = cfg
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) ControllerOption {
	return func(c *Controllers) *Controllers {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) ControllerOption {
	return func(c *Controllers) *Controllers {
		c.Auther = auther
		return c
	}
}

func WithControllerUploadDir(dir string) ControllerOption {
	return func(c *Controllers) *Controllers {
		if c.Users == nil {
			c.Users = &UsersController{Logger: c.Logger, Repo: c.Repo}
		}
		c.Users.UploadDir = dir
		return c
	}
}

type AuthController struct {
	Logger Logger
	Repo   RepositoryManager
	Auther Authenticator
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Name     string `form:"name" json:"name"`
	LastName string `form:"last_name" json:"last_name"`
	Phone    string `form:"phone" json:"phone"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     string `form:"type_user" json:"type_user"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(
			&r.Phone,
			validation.Required,
			validation.Length(10, 12),
			is.Digit,
			validation.By(ValidatePhoneNumber),
		),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 255)),
		validation.Field(&r.Role, validation.In(RoleAdmin, RoleBasic)),
	)
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return WriteError(ctx, a.Logger, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("register user validate payload: %v", err)
		return WriteError(ctx, a.Logger, ValidationError(err))
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	msg := RegisterUserMessage{
		Name:     payload.Name,
		LastName: payload.LastName,
		Phone:    payload.Phone,
		Email:    payload.Email,
		Role:     payload.Role,
		Password: payload.Password,
	}

	if err := registerUser.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("register user execute: %v", err)
		return WriteError(ctx, a.Logger, err)
	}

	user := registerUser.Result()

	token, err := a.Auther.TokenService().Generate(NewIdentityFromUser(user))
	if err != nil {
		a.Logger.Error("register user issue token: %v", err)
		return WriteError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"message":      "User authenticated successfully",
		"user":         user.Public(),
		"access_token": token,
	})
}

// LoginRequest is the credentials payload
type LoginRequest struct {
	Phone    string `form:"phone" json:"phone"`
	Password string `form:"password" json:"password"`
}

// GetPhone returns the phone identifier
func (r LoginRequest) GetPhone() string {
	return r.Phone
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Phone, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return WriteError(ctx, a.Logger, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, a.Logger, ValidationError(err))
	}

	token, err := a.Auther.Login(ctx.Context(), payload.GetPhone(), payload.GetPassword())
	if err != nil {
		return WriteError(ctx, a.Logger, err)
	}

	body := map[string]any{
		"message":      "User authenticated successfully",
		"access_token": token,
	}

	// login responses carry the redacted account next to the token
	if a.Repo != nil {
		if user, err := a.Repo.Users().GetActiveByPhone(ctx.Context(), payload.GetPhone()); err == nil {
			body["user"] = user.Public()
		}
	}

	return ctx.JSON(router.StatusOK, body)
}

type UsersController struct {
	Logger    Logger
	Repo      RepositoryManager
	UploadDir string
	Exporter  *UsersPDFExporter
}

func (u *UsersController) List(ctx router.Context) error {
	users, err := u.Repo.Users().ListActive(ctx.Context())
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	out := make([]PublicUser, 0, len(users))
	for _, user := range users {
		out = append(out, user.Public())
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Users retrieved successfully",
		"users":   out,
	})
}

func (u *UsersController) Show(ctx router.Context) error {
	id, err := u.userID(ctx)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	user, err := u.Repo.Users().GetActiveByID(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": user.Public(),
	})
}

// UpdateUserRequest carries a partial update, empty fields are left alone
type UpdateUserRequest struct {
	Name     string `form:"name" json:"name"`
	LastName string `form:"last_name" json:"last_name"`
	Phone    string `form:"phone" json:"phone"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     string `form:"type_user" json:"type_user"`
}

// Validate will run validation rules
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(1, 200)),
		validation.Field(
			&r.Phone,
			validation.Length(10, 12),
			is.Digit,
			validation.By(ValidatePhoneNumberOptional),
		),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Password, validation.Length(8, 255)),
		validation.Field(&r.Role, validation.In(RoleAdmin, RoleBasic)),
	)
}

func (u *UsersController) Update(ctx router.Context) error {
	id, err := u.userID(ctx)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	payload := new(UpdateUserRequest)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, u.Logger, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, u.Logger, ValidationError(err))
	}

	patch := &User{
		Name:     payload.Name,
		LastName: payload.LastName,
		Phone:    payload.Phone,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
	}

	user, err := u.Repo.Users().Update(ctx.Context(), id, patch)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    user.Public(),
	})
}

func (u *UsersController) Delete(ctx router.Context) error {
	id, err := u.userID(ctx)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	if _, err := u.Repo.Users().SoftDelete(ctx.Context(), u.actor(ctx), id); err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "User deleted successfully",
	})
}

func (u *UsersController) Restore(ctx router.Context) error {
	id, err := u.userID(ctx)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	user, err := u.Repo.Users().Restore(ctx.Context(), u.actor(ctx), id)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "User restored successfully",
		"user":    user.Public(),
	})
}

func (u *UsersController) LastLogin(ctx router.Context) error {
	id, err := u.userID(ctx)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	if _, err := u.Repo.Users().GetAnyByID(ctx.Context(), id); err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	last, err := u.Repo.LoginLogs().LastLogin(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	var lastLogin any
	if last != nil {
		lastLogin = last.Format(time.RFC3339)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user_id":    id,
		"last_login": lastLogin,
	})
}

// UploadPhoto accepts a multipart form with a "photo" file field, stores the
// file under UploadDir with a random name and records the name on the user.
func (u *UsersController) UploadPhoto(ctx router.Context) error {
	id, err := u.userID(ctx)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	if _, err := u.Repo.Users().GetActiveByID(ctx.Context(), id); err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	fileName, err := u.savePhoto(ctx)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	user, err := u.Repo.Users().Update(ctx.Context(), id, &User{Photo: fileName})
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Photo uploaded successfully",
		"photo":   fileName,
		"user":    user.Public(),
	})
}

func (u *UsersController) ExportPDF(ctx router.Context) error {
	users, err := u.Repo.Users().ListActive(ctx.Context())
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	exporter := u.Exporter
	if exporter == nil {
		exporter = NewUsersPDFExporter()
	}

	pdf, err := exporter.Render(users)
	if err != nil {
		return WriteError(ctx, u.Logger, err)
	}

	ctx.SetHeader("Content-Type", "application/pdf")
	ctx.SetHeader("Content-Disposition", `attachment; filename="users.pdf"`)
	return ctx.Status(router.StatusOK).Send(pdf)
}

func (u *UsersController) userID(ctx router.Context) (int64, error) {
	id := ctx.ParamsInt("id", 0)
	if id <= 0 {
		return 0, goerrors.New("invalid user id", goerrors.CategoryBadInput).
			WithTextCode("INVALID_ID").
			WithCode(goerrors.CodeBadRequest)
	}
	return int64(id), nil
}

func (u *UsersController) actor(ctx router.Context) ActorRef {
	value := ctx.Locals("user")
	if claims, ok := value.(*AccessClaims); ok {
		return ActorRef{ID: claims.Phone(), Type: "user"}
	}
	return ActorRef{Type: "system"}
}

// savePhoto parses the multipart body by hand from the raw request bytes
// and persists the first "photo" file part.
func (u *UsersController) savePhoto(ctx router.Context) (string, error) {
	mediaType, params, err := mime.ParseMediaType(ctx.Header("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return "", goerrors.New("expected a multipart form upload", goerrors.CategoryBadInput).
			WithTextCode("INVALID_UPLOAD").
			WithCode(goerrors.CodeBadRequest)
	}

	reader := multipart.NewReader(bytes.NewReader(ctx.Body()), params["boundary"])
	form, err := reader.ReadForm(maxPhotoUploadBytes)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse multipart form").
			WithCode(goerrors.CodeBadRequest)
	}
	defer form.RemoveAll()

	files := form.File["photo"]
	if len(files) == 0 {
		return "", goerrors.New("missing photo file field", goerrors.CategoryValidation).
			WithTextCode("MISSING_PHOTO").
			WithCode(goerrors.CodeBadRequest)
	}

	src, err := files[0].Open()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open uploaded file")
	}
	defer src.Close()

	if err := os.MkdirAll(u.UploadDir, 0o755); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to prepare upload directory")
	}

	fileName := uuid.New().String() + filepath.Ext(files[0].Filename)
	dst, err := os.Create(filepath.Join(u.UploadDir, fileName))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store uploaded file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write uploaded file")
	}

	return fileName, nil
}

// ValidatePhoneNumber checks the value parses as a real phone number in the
// default region.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	return validatePhone(s, true)
}

// ValidatePhoneNumberOptional is the same check but tolerates empty values.
func ValidatePhoneNumberOptional(value any) error {
	s, _ := value.(string)
	return validatePhone(s, false)
}

func validatePhone(s string, required bool) error {
	if s == "" {
		if required {
			return goerrors.New("phone number is required", goerrors.CategoryValidation)
		}
		return nil
	}

	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "phone number could not be parsed")
	}

	if !phonenumbers.IsValidNumber(num) {
		return goerrors.New("phone number is not valid", goerrors.CategoryValidation)
	}

	return nil
}
