package tourdesk

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the JSON API: token issuing, the current-user
// endpoint, user registration, and the operator and guide catalogs.
type HTTPController struct {
	Logger Logger
	Repo   RepositoryManager
	Auth   Authenticator
	mw     *RouteAuthenticator
	cfg    Config
}

func NewHTTPController(auther Authenticator, repo RepositoryManager, mw *RouteAuthenticator, cfg Config) *HTTPController {
	return &HTTPController{
		Logger: defLogger{},
		Repo:   repo,
		Auth:   auther,
		mw:     mw,
		cfg:    cfg,
	}
}

// RegisterRoutes mounts every endpoint. Catalog routes are superuser only;
// the gates re-check role and status against storage on each request.
func (c *HTTPController) RegisterRoutes(app RouteRegistrar) {
	active := c.mw.ActiveOnly()
	super := c.mw.SuperuserOnly()

	app.Post("/token", c.Token)
	app.Get("/me", c.Me, active)
	app.Post("/users", c.CreateUser, super)

	app.Post("/operators", c.CreateOperator, super)
	app.Get("/operators", c.ListOperators, super)
	app.Get("/operators/:id", c.GetOperator, super)
	app.Put("/operators/:id", c.UpdateOperator, super)
	app.Delete("/operators/:id", c.DeleteOperator, super)

	app.Post("/guides", c.CreateGuide, super)
	app.Get("/guides", c.ListGuides, super)
	app.Get("/guides/:id", c.GetGuide, super)
	app.Put("/guides/:id", c.UpdateGuide, super)
	app.Delete("/guides/:id", c.DeleteGuide, super)
}

// TokenRequestPayload is the OAuth2 password-grant form body.
type TokenRequestPayload struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (r TokenRequestPayload) GetIdentifier() string { return r.Username }
func (r TokenRequestPayload) GetPassword() string   { return r.Password }

var _ LoginPayload = (*TokenRequestPayload)(nil)

func (r TokenRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// Token exchanges credentials for a signed access token. Every failure
// mode produces the same 401 body so callers cannot probe for accounts.
func (c *HTTPController) Token(ctx router.Context) error {
	payload := new(TokenRequestPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.unauthorized(ctx)
	}

	if err := payload.Validate(); err != nil {
		return c.unauthorized(ctx)
	}

	return c.issueToken(ctx, payload)
}

func (c *HTTPController) issueToken(ctx router.Context, creds LoginPayload) error {
	token, err := c.Auth.Login(ctx.Context(), creds.GetIdentifier(), creds.GetPassword())
	if err != nil {
		c.Logger.Debug("login rejected", "identifier", creds.GetIdentifier())
		return c.unauthorized(ctx)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Me returns the authenticated account as stored, relations included.
func (c *HTTPController) Me(ctx router.Context) error {
	user := CurrentUser(ctx, c.cfg.GetContextKey())
	if user == nil {
		return c.unauthorized(ctx)
	}
	return ctx.JSON(router.StatusOK, user)
}

// CreateUserPayload is the registration body. The password is accepted
// once here and stored only as a bcrypt digest.
type CreateUserPayload struct {
	NationalID string `json:"national_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone_number"`
	Password   string `json:"password"`
	RoleID     int64  `json:"role_id"`
	StatusID   int64  `json:"status_id"`
}

func (r CreateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NationalID, validation.Required, validation.Length(4, 50)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(validPhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (c *HTTPController) CreateUser(ctx router.Context) error {
	payload := new(CreateUserPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "could not parse request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusUnprocessableEntity, router.ViewContext{
			"detail": err.Error(),
		})
	}

	msg := RegisterUserMessage{
		NationalID: payload.NationalID,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Password:   payload.Password,
		RoleID:     payload.RoleID,
		StatusID:   payload.StatusID,
	}

	handler := NewRegisterUserHandler(c.Repo)
	user, err := handler.Execute(ctx.Context(), msg)
	if err != nil {
		return c.handleError(ctx, err, "User")
	}

	return ctx.JSON(router.StatusCreated, user)
}

// OperatorPayload is the create and update body for operator companies.
type OperatorPayload struct {
	Name      string `json:"name"`
	LegalName string `json:"legal_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone_number"`
	Address   string `json:"address"`
}

func (r OperatorPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LegalName, validation.Length(0, 200)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, validation.By(validPhoneNumber)),
	)
}

func (c *HTTPController) CreateOperator(ctx router.Context) error {
	payload := new(OperatorPayload)
	if err := c.bindAndValidate(ctx, payload); err != nil {
		return err
	}

	record := &Operator{
		Name:      payload.Name,
		LegalName: payload.LegalName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Address:   payload.Address,
	}
	if user := CurrentUser(ctx, c.cfg.GetContextKey()); user != nil {
		record.CreatedByID = user.ID
	}

	record, err := c.Repo.Operators().Create(ctx.Context(), record)
	if err != nil {
		return c.handleError(ctx, err, "Operator")
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (c *HTTPController) ListOperators(ctx router.Context) error {
	limit, offset := pageParams(ctx)
	records, err := c.Repo.Operators().List(ctx.Context(), limit, offset)
	if err != nil {
		return c.handleError(ctx, err, "Operator")
	}
	return ctx.JSON(router.StatusOK, records)
}

func (c *HTTPController) GetOperator(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.notFound(ctx, "Operator")
	}

	record, err := c.Repo.Operators().Get(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err, "Operator")
	}
	return ctx.JSON(router.StatusOK, record)
}

func (c *HTTPController) UpdateOperator(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.notFound(ctx, "Operator")
	}

	payload := new(OperatorPayload)
	if err := c.bindAndValidate(ctx, payload); err != nil {
		return err
	}

	record, err := c.Repo.Operators().Get(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err, "Operator")
	}

	record.Name = payload.Name
	record.LegalName = payload.LegalName
	record.Email = payload.Email
	record.Phone = payload.Phone
	record.Address = payload.Address
	c.stampUpdate(ctx, &record.UpdatedByID, &record.UpdatedAt)

	record, err = c.Repo.Operators().Update(ctx.Context(), record)
	if err != nil {
		return c.handleError(ctx, err, "Operator")
	}

	return ctx.JSON(router.StatusOK, record)
}

func (c *HTTPController) DeleteOperator(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.notFound(ctx, "Operator")
	}

	record, err := c.Repo.Operators().Delete(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err, "Operator")
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Operator deleted",
		"record":  record,
	})
}

// GuidePayload is the create and update body for guide records.
type GuidePayload struct {
	UserID     string   `json:"user_id"`
	OperatorID string   `json:"operator_id"`
	Rating     int      `json:"rating"`
	Languages  []string `json:"languages"`
}

func (r GuidePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, is.UUID),
		validation.Field(&r.OperatorID, validation.Required, is.UUID),
		validation.Field(&r.Rating, validation.Min(0), validation.Max(5)),
	)
}

func (c *HTTPController) CreateGuide(ctx router.Context) error {
	payload := new(GuidePayload)
	if err := c.bindAndValidate(ctx, payload); err != nil {
		return err
	}

	userID, uerr := uuid.Parse(payload.UserID)
	operatorID, oerr := uuid.Parse(payload.OperatorID)
	if uerr != nil || oerr != nil {
		return c.badRequest(ctx, "user_id and operator_id must be valid uuids")
	}

	record := &Guide{
		UserID:     userID,
		OperatorID: operatorID,
		Rating:     payload.Rating,
		Languages:  payload.Languages,
	}
	if user := CurrentUser(ctx, c.cfg.GetContextKey()); user != nil {
		record.CreatedByID = user.ID
	}

	record, err := c.Repo.Guides().Create(ctx.Context(), record)
	if err != nil {
		return c.handleError(ctx, err, "Guide")
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (c *HTTPController) ListGuides(ctx router.Context) error {
	limit, offset := pageParams(ctx)
	records, err := c.Repo.Guides().List(ctx.Context(), limit, offset)
	if err != nil {
		return c.handleError(ctx, err, "Guide")
	}
	return ctx.JSON(router.StatusOK, records)
}

func (c *HTTPController) GetGuide(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.notFound(ctx, "Guide")
	}

	record, err := c.Repo.Guides().Get(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err, "Guide")
	}
	return ctx.JSON(router.StatusOK, record)
}

func (c *HTTPController) UpdateGuide(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.notFound(ctx, "Guide")
	}

	payload := new(GuidePayload)
	if err := c.bindAndValidate(ctx, payload); err != nil {
		return err
	}

	record, err := c.Repo.Guides().Get(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err, "Guide")
	}

	userID, uerr := uuid.Parse(payload.UserID)
	operatorID, oerr := uuid.Parse(payload.OperatorID)
	if uerr != nil || oerr != nil {
		return c.badRequest(ctx, "user_id and operator_id must be valid uuids")
	}

	record.UserID = userID
	record.OperatorID = operatorID
	record.Rating = payload.Rating
	record.Languages = payload.Languages
	c.stampUpdate(ctx, &record.UpdatedByID, &record.UpdatedAt)

	record, err = c.Repo.Guides().Update(ctx.Context(), record)
	if err != nil {
		return c.handleError(ctx, err, "Guide")
	}

	return ctx.JSON(router.StatusOK, record)
}

func (c *HTTPController) DeleteGuide(ctx router.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.notFound(ctx, "Guide")
	}

	record, err := c.Repo.Guides().Delete(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err, "Guide")
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Guide deleted",
		"record":  record,
	})
}

type payloadValidator interface {
	Validate() error
}

func (c *HTTPController) bindAndValidate(ctx router.Context, payload payloadValidator) error {
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "could not parse request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusUnprocessableEntity, router.ViewContext{
			"detail": err.Error(),
		})
	}

	return nil
}

func (c *HTTPController) stampUpdate(ctx router.Context, byID *uuid.UUID, at **time.Time) {
	if user := CurrentUser(ctx, c.cfg.GetContextKey()); user != nil {
		*byID = user.ID
	}
	now := time.Now()
	*at = &now
}

func (c *HTTPController) unauthorized(ctx router.Context) error {
	ctx.SetHeader("WWW-Authenticate", c.cfg.GetAuthScheme())
	return ctx.JSON(router.StatusUnauthorized, router.ViewContext{
		"detail": ErrInvalidCredentials.Message,
	})
}

func (c *HTTPController) badRequest(ctx router.Context, detail string) error {
	return ctx.JSON(router.StatusBadRequest, router.ViewContext{
		"detail": detail,
	})
}

func (c *HTTPController) notFound(ctx router.Context, entity string) error {
	return ctx.JSON(router.StatusNotFound, router.ViewContext{
		"detail": entity + " not found",
	})
}

func (c *HTTPController) handleError(ctx router.Context, err error, entity string) error {
	if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
		return c.notFound(ctx, entity)
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryConflict:
			return ctx.JSON(router.StatusConflict, router.ViewContext{
				"detail": richErr.Message,
			})
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			return ctx.JSON(router.StatusBadRequest, router.ViewContext{
				"detail": richErr.Message,
			})
		}
	}

	c.Logger.Error("request failed", "entity", entity, "error", err)

	return ctx.JSON(router.StatusInternalServerError, router.ViewContext{
		"detail": "internal server error",
	})
}

func pathID(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	if raw == "" {
		return uuid.Nil, errors.New("missing id")
	}
	return uuid.Parse(raw)
}

func pageParams(ctx router.Context) (limit, offset int) {
	limit = queryInt(ctx, "limit", maxPageSize)
	offset = queryInt(ctx, "offset", 0)
	return limit, offset
}

// maxQueryInt bounds limit/offset parsing so long digit runs cannot
// overflow into negative values.
const maxQueryInt = 1 << 30

func queryInt(ctx router.Context, name string, def int) int {
	raw := ctx.Query(name, "")
	if raw == "" {
		return def
	}
	v := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return def
		}
		v = v*10 + int(r-'0')
		if v > maxQueryInt {
			return def
		}
	}
	return v
}

// validPhoneNumber accepts empty values, otherwise the number must parse
// and pass libphonenumber validation in international format.
func validPhoneNumber(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "ZZ")
	if err != nil {
		return errors.New("must be an international phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
}
