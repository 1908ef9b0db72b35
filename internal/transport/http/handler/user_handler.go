package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-user-service/internal/domain"
	"go-user-service/internal/service"
	resp "go-user-service/internal/transport/http/response"
)

// UserHandler exposes the user lifecycle over HTTP. It mounts the public
// surface under /api/v1 and the escape-hatch endpoints under /admin/v1.
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	g.POST("/users", h.create)
	g.GET("/users", h.list)
	g.GET("/users/:id", h.get)
	g.PUT("/users/:id", h.updateProfile)
	g.PUT("/users/:id/email", h.updateEmail)
	g.PUT("/users/:id/password", h.changePassword)
	g.POST("/users/:id/activate", h.activate)
	g.POST("/users/:id/deactivate", h.deactivate)
	g.DELETE("/users/:id", h.delete)
}

func (h *UserHandler) MountAdmin(g *gin.RouterGroup) {
	g.GET("/users", h.adminList)
	g.GET("/users/:id", h.adminGet)
	g.POST("/users/:id/ban", h.ban)
}

type userView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	Version   int64      `json:"version"`
}

// adminView additionally exposes the soft-delete marker.
type adminView struct {
	userView
	IsDeleted bool `json:"isDeleted"`
}

func toView(u *domain.User) userView {
	return userView{
		ID:        u.ID(),
		Username:  u.Username(),
		Email:     u.Email(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		IsActive:  u.IsActive(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
		Version:   u.Version(),
	}
}

func toAdminView(u *domain.User) adminView {
	return adminView{userView: toView(u), IsDeleted: u.IsDeleted()}
}

type createUserReq struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

func (h *UserHandler) create(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), service.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		resp.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.OK(toView(u)))
}

func (h *UserHandler) get(c *gin.Context) {
	u, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(toView(u)))
}

func (h *UserHandler) list(c *gin.Context) {
	page, size := pageArgs(c)
	us, total, err := h.svc.ListUsers(c.Request.Context(), (page-1)*size, size)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	views := make([]userView, 0, len(us))
	for _, u := range us {
		views = append(views, toView(u))
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{
		"list": views, "total": total, "page": page, "size": size,
	}))
}

type updateProfileReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *UserHandler) updateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), c.Param("id"), req.FirstName, req.LastName)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(toView(u)))
}

type updateEmailReq struct {
	Email string `json:"email"`
}

func (h *UserHandler) updateEmail(c *gin.Context) {
	var req updateEmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	u, err := h.svc.UpdateEmail(c.Request.Context(), c.Param("id"), req.Email)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(toView(u)))
}

type changePasswordReq struct {
	Password string `json:"password"`
}

func (h *UserHandler) changePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		resp.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) activate(c *gin.Context)   { h.setActive(c, true) }
func (h *UserHandler) deactivate(c *gin.Context) { h.setActive(c, false) }

func (h *UserHandler) setActive(c *gin.Context, active bool) {
	u, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), active)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(toView(u)))
}

func (h *UserHandler) delete(c *gin.Context) {
	if err := h.svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		resp.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) adminGet(c *gin.Context) {
	u, err := h.svc.AdminGetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(toAdminView(u)))
}

func (h *UserHandler) adminList(c *gin.Context) {
	page, size := pageArgs(c)
	withDeleted, _ := strconv.ParseBool(c.Query("with_deleted"))
	us, total, err := h.svc.AdminListUsers(c.Request.Context(), (page-1)*size, size, withDeleted)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	views := make([]adminView, 0, len(us))
	for _, u := range us {
		views = append(views, toAdminView(u))
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{
		"list": views, "total": total, "page": page, "size": size,
	}))
}

// ban force-deactivates an account so the user can no longer log in, without
// destroying the record.
func (h *UserHandler) ban(c *gin.Context) {
	u, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(toAdminView(u)))
}

func pageArgs(c *gin.Context) (page, size int) {
	page = atoiDefault(c.Query("page"), 1)
	size = atoiDefault(c.Query("size"), 20)
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
