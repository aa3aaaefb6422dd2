package accounts

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const sessionContextKey = "session"

// Controller exposes the account lifecycle over HTTP. It binds payloads,
// delegates to the Service and maps rich errors to status codes; no
// business rules live here.
type Controller struct {
	service  *Service
	sessions *SessionManager
	logger   Logger
}

// NewController returns a new Controller
func NewController(service *Service, sessions *SessionManager) *Controller {
	return &Controller{
		service:  service,
		sessions: sessions,
		logger:   defLogger{},
	}
}

func (ctrl *Controller) WithLogger(logger Logger) *Controller {
	if logger != nil {
		ctrl.logger = logger
	}
	return ctrl
}

// RegisterRoutes mounts the account routes under the given router,
// typically app.Group("/api/v1/accounts").
func (ctrl *Controller) RegisterRoutes(r fiber.Router) {
	r.Post("/signup", ctrl.Signup)
	r.Post("/login", ctrl.Login)
	r.Post("/quick-checkout", ctrl.QuickCheckout)
	r.Post("/password/forgot", ctrl.ForgotPassword)
	r.Post("/password/reset", ctrl.ResetPassword)
	r.Get("/verify", ctrl.VerifyEmail)

	r.Patch("/me", ctrl.RequireSession, ctrl.UpdateProfile)
	r.Put("/password", ctrl.RequireSession, ctrl.ChangePassword)

	r.Post("/", ctrl.RequireSession, ctrl.RequireAdmin, ctrl.AdminCreate)
	r.Get("/", ctrl.RequireSession, ctrl.RequireAdmin, ctrl.List)
	r.Get("/search/:query", ctrl.RequireSession, ctrl.RequireAdmin, ctrl.Search)
	r.Patch("/:id/activate", ctrl.RequireSession, ctrl.RequireAdmin, ctrl.Activate)
	r.Patch("/:id/deactivate", ctrl.RequireSession, ctrl.RequireAdmin, ctrl.Deactivate)
	r.Patch("/:id/role/:role", ctrl.RequireSession, ctrl.RequireAdmin, ctrl.ChangeRole)
}

// RequireSession validates the bearer session token and stores the parsed
// session in the request context.
func (ctrl *Controller) RequireSession(c *fiber.Ctx) error {
	raw := bearerToken(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return ctrl.renderError(c, errors.New("missing authentication token", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized))
	}

	session, err := ctrl.sessions.Parse(raw)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	c.Locals(sessionContextKey, session)
	return c.Next()
}

// RequireAdmin gates a route on the admin role. Must run after
// RequireSession.
func (ctrl *Controller) RequireAdmin(c *fiber.Ctx) error {
	session := SessionFromContext(c)
	if session == nil || !session.IsAdmin() {
		return ctrl.renderError(c, errors.New("admin role required", errors.CategoryAuthz).
			WithCode(errors.CodeForbidden))
	}
	return c.Next()
}

// SessionFromContext returns the session stored by RequireSession, or nil.
func SessionFromContext(c *fiber.Ctx) *SessionObject {
	session, _ := c.Locals(sessionContextKey).(*SessionObject)
	return session
}

func (ctrl *Controller) Signup(c *fiber.Ctx) error {
	var in SignupInput
	if err := c.BodyParser(&in); err != nil {
		return ctrl.renderError(c, badPayload(err))
	}

	if err := in.Validate(); err != nil {
		return ctrl.renderError(c, err)
	}

	result, err := ctrl.service.Signup(c.Context(), in)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(result)
}

// Login handles both local and social logins: a payload carrying a
// provider identity is treated as social, everything else as local.
func (ctrl *Controller) Login(c *fiber.Ctx) error {
	var in LoginInput
	if err := c.BodyParser(&in); err != nil {
		return ctrl.renderError(c, badPayload(err))
	}

	in.Social = in.ProviderID != "" || in.SocialUID != ""

	if err := in.Validate(); err != nil {
		return ctrl.renderError(c, err)
	}

	result, err := ctrl.service.Login(c.Context(), in)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.JSON(result)
}

func (ctrl *Controller) QuickCheckout(c *fiber.Ctx) error {
	var in QuickCheckoutInput
	if err := c.BodyParser(&in); err != nil {
		return ctrl.renderError(c, badPayload(err))
	}

	if err := in.Validate(); err != nil {
		return ctrl.renderError(c, err)
	}

	result, err := ctrl.service.QuickCheckout(c.Context(), in)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(result)
}

func (ctrl *Controller) UpdateProfile(c *fiber.Ctx) error {
	session := SessionFromContext(c)

	var in UpdateProfileInput
	if err := c.BodyParser(&in); err != nil {
		return ctrl.renderError(c, badPayload(err))
	}

	if err := in.Validate(); err != nil {
		return ctrl.renderError(c, err)
	}

	result, err := ctrl.service.UpdateProfile(c.Context(), session.GetAccountID(), in)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.JSON(result)
}

type changePasswordPayload struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (ctrl *Controller) ChangePassword(c *fiber.Ctx) error {
	session := SessionFromContext(c)

	var in changePasswordPayload
	if err := c.BodyParser(&in); err != nil {
		return ctrl.renderError(c, badPayload(err))
	}

	result, err := ctrl.service.ChangePassword(c.Context(), session.GetAccountID(), in.OldPassword, in.NewPassword)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.JSON(result)
}

type forgotPasswordPayload struct {
	Email string `json:"email"`
}

func (ctrl *Controller) ForgotPassword(c *fiber.Ctx) error {
	var in forgotPasswordPayload
	if err := c.BodyParser(&in); err != nil {
		return ctrl.renderError(c, badPayload(err))
	}

	result, err := ctrl.service.RequestPasswordReset(c.Context(), in.Email)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.JSON(result)
}

type resetPasswordPayload struct {
	ID         string `json:"id"`
	EmailToken string `json:"emailToken"`
	Password   string `json:"password"`
}

func (ctrl *Controller) ResetPassword(c *fiber.Ctx) error {
	var in resetPasswordPayload
	if err := c.BodyParser(&in); err != nil {
		return ctrl.renderError(c, badPayload(err))
	}

	result, err := ctrl.service.CompletePasswordReset(c.Context(), in.ID, in.EmailToken, in.Password)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.JSON(result)
}

// VerifyEmail consumes the emailed verification link. With resend=true it
// dispatches a fresh link instead of verifying.
func (ctrl *Controller) VerifyEmail(c *fiber.Ctx) error {
	accountID := c.Query("id")

	if c.QueryBool("resend") {
		result, err := ctrl.service.ResendVerification(c.Context(), accountID)
		if err != nil {
			return ctrl.renderError(c, err)
		}
		return c.JSON(result)
	}

	result, err := ctrl.service.VerifyEmail(c.Context(), accountID, c.Query("emailToken"))
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.JSON(result)
}

func (ctrl *Controller) AdminCreate(c *fiber.Ctx) error {
	var in AdminCreateInput
	if err := c.BodyParser(&in); err != nil {
		return ctrl.renderError(c, badPayload(err))
	}

	if err := in.Validate(); err != nil {
		return ctrl.renderError(c, err)
	}

	result, err := ctrl.service.AdminCreate(c.Context(), in)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(result)
}

func (ctrl *Controller) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	result, err := ctrl.service.List(c.Context(), page, pageSize)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.JSON(result)
}

func (ctrl *Controller) Search(c *fiber.Ctx) error {
	query, err := unescapeParam(c, "query")
	if err != nil {
		return ctrl.renderError(c, badPayload(err))
	}

	views, err := ctrl.service.Search(c.Context(), query)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.JSON(fiber.Map{"rows": views})
}

func (ctrl *Controller) Activate(c *fiber.Ctx) error {
	result, err := ctrl.service.Activate(c.Context(), c.Params("id"))
	if err != nil {
		return ctrl.renderError(c, err)
	}
	return c.JSON(result)
}

func (ctrl *Controller) Deactivate(c *fiber.Ctx) error {
	result, err := ctrl.service.Deactivate(c.Context(), c.Params("id"))
	if err != nil {
		return ctrl.renderError(c, err)
	}
	return c.JSON(result)
}

func (ctrl *Controller) ChangeRole(c *fiber.Ctx) error {
	result, err := ctrl.service.ChangeRole(c.Context(), c.Params("id"), AccountRole(c.Params("role")))
	if err != nil {
		return ctrl.renderError(c, err)
	}
	return c.JSON(result)
}

func (ctrl *Controller) renderError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	ctrl.logger.Info(
		"request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusInternalServerError
	}

	body := fiber.Map{
		"message": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	return c.Status(status).JSON(fiber.Map{"error": body})
}

func badPayload(err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "invalid request payload").
		WithCode(errors.CodeBadRequest)
}

func bearerToken(header string) string {
	const scheme = "Bearer "
	if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		return strings.TrimSpace(header[len(scheme):])
	}
	return ""
}

func unescapeParam(c *fiber.Ctx, name string) (string, error) {
	return url.PathUnescape(c.Params(name))
}
