package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/pkg/apperror"
	"github.com/oksasatya/go-user-registry/pkg/response"
	"github.com/oksasatya/go-user-registry/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	ID        string `json:"id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Phone     string `json:"phone"`
	CreatedBy string `json:"created_by"`
}

// updateUserRequest is a full replacement; pointers distinguish an empty
// value from a missing one.
type updateUserRequest struct {
	Name  *string `json:"name" binding:"required"`
	Email *string `json:"email" binding:"required"`
	Phone *string `json:"phone" binding:"required"`
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	Customers   []string  `json:"customers"`
	HasPassword bool      `json:"has_password"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:          u.ID(),
		Name:        u.Name(),
		Email:       u.Email(),
		Phone:       u.Phone(),
		CreatedAt:   u.CreatedAt(),
		CreatedBy:   u.CreatedBy(),
		Customers:   u.Customers(),
		HasPassword: u.HasCredential(),
	}
}

func (h *UserHandler) bindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", response.ErrorBody{
		Kind:    apperror.KindValidation.String(),
		Code:    string(apperror.CodeRequestInvalid),
		Details: validation.ToDetails(err),
	})
}

// fail maps err to its HTTP status. Internal causes are logged, not returned.
func (h *UserHandler) fail(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	body := response.ErrorBody{Kind: kind.String(), Code: string(apperror.CodeOf(err))}
	msg := "internal error"
	if e, ok := apperror.As(err); ok && kind != apperror.KindInternal {
		msg = e.Message
		body.Field = e.Field
		if len(e.Violations) > 0 {
			body.Details = make(map[string]string, len(e.Violations))
			for _, v := range e.Violations {
				body.Details[v.Field] = v.Constraint + ": " + v.Message
			}
		}
	}
	if kind == apperror.KindInternal {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.Error[any](c, kind.HTTPStatus(), msg, body)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), userapp.CreateUserInput{
		ID:        req.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user created", nil)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.GetAllUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	response.Success(c, http.StatusOK, out, "users", map[string]any{"count": len(out)})
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	u, err := h.Svc.UpdateUserByID(c.Request.Context(), userapp.UpdateUserInput{
		ID:    c.Param("id"),
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user updated", nil)
}

func (h *UserHandler) Exists(c *gin.Context) {
	ok, err := h.Svc.UserExists(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user_exists": ok}, "user exists", nil)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	if err := h.Svc.SetPassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "password updated", nil)
}

func (h *UserHandler) VerifyPassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	ok, err := h.Svc.VerifyPassword(c.Request.Context(), c.Param("id"), req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"valid": ok}, "password checked", nil)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	if err := h.Svc.ResetPassword(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, nil, "password reset requested", nil)
}
