package api

import (
	"fmt"
	"net/http"

	reqdto "grid-reservation/internal/handler/dto/request"
	resdto "grid-reservation/internal/handler/dto/response"
	"grid-reservation/internal/handler/httperr"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/usecase/directory"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	directory directory.Service
}

func NewUserHandler(svc directory.Service) *UserHandler {
	return &UserHandler{directory: svc}
}

// @Summary Log in
// @Description Look up an active user by username
// @Tags user
// @Produce json
// @Param username query string true "Username"
// @Success 200 {object} resdto.LoginResponse
// @Failure 404 {object} httperr.Response
// @Router /reservation/user [get]
func (h *UserHandler) Login(c *gin.Context) {
	var q reqdto.UsernameQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	u, err := h.directory.Login(c.Request.Context(), q.Value())
	if err != nil {
		abortUserError(c, err, q.Value())
		return
	}
	c.JSON(http.StatusOK, resdto.NewLoginResponse(u))
}

// @Summary Add user
// @Tags user
// @Produce json
// @Param username query string true "Username"
// @Param first_name query string true "First name"
// @Param role query string true "scheduler, customer or admin"
// @Success 201 {object} resdto.Envelope
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /reservation/user/adduser [post]
func (h *UserHandler) AddUser(c *gin.Context) {
	var q reqdto.AddUserQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	username, firstName, role := q.Values()

	if _, err := h.directory.AddUser(c.Request.Context(), username, firstName, role); err != nil {
		abortUserError(c, err, username)
		return
	}
	c.JSON(http.StatusCreated, resdto.OK(fmt.Sprintf("User %s added", username)))
}

// @Summary Change user role
// @Tags user
// @Produce json
// @Param username query string true "Username"
// @Param role query string true "scheduler, customer or admin"
// @Success 200 {object} resdto.Envelope
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /reservation/user/changeuser [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var q reqdto.ChangeRoleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	username, role := q.Values()

	if _, err := h.directory.ChangeRole(c.Request.Context(), username, role); err != nil {
		abortUserError(c, err, username)
		return
	}
	c.JSON(http.StatusOK, resdto.OK(fmt.Sprintf("User %s changed to %s", username, role)))
}

// @Summary Remove user
// @Description Deactivates the user; reservations are untouched
// @Tags user
// @Produce json
// @Param username query string true "Username"
// @Success 200 {object} resdto.Envelope
// @Failure 404 {object} httperr.Response
// @Router /reservation/user/deleteuser [delete]
func (h *UserHandler) RemoveUser(c *gin.Context) {
	var q reqdto.UsernameQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	if err := h.directory.RemoveUser(c.Request.Context(), q.Value()); err != nil {
		abortUserError(c, err, q.Value())
		return
	}
	c.JSON(http.StatusOK, resdto.OK(fmt.Sprintf("User %s removed", q.Value())))
}

// @Summary List users
// @Tags user
// @Produce json
// @Success 200 {object} resdto.Envelope
// @Router /reservation/user/getall [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	list, err := h.directory.ListUsers(c.Request.Context())
	if err != nil {
		abortUserError(c, err, "")
		return
	}
	users, err := resdto.FromUsers(list)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.OK(users))
}

func abortUserError(c *gin.Context, err error, username string) {
	switch {
	case errs.Is(err, directory.ErrUserNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err,
			fmt.Sprintf("User not found - user entered '%s'", username), nil)
	case errs.Is(err, directory.ErrUserExists):
		httperr.AbortWithError(c, http.StatusConflict, err,
			fmt.Sprintf("User %s already exists", username), nil)
	case errs.Is(err, directory.ErrInvalidRole):
		httperr.AbortWithError(c, http.StatusBadRequest, err,
			"ERROR - role must be one of scheduler, customer, admin", nil)
	case errs.Is(err, directory.ErrInvalidUser):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "ERROR - "+err.Error(), nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
