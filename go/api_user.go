package orderflowserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	userhttpmapper "github.com/Apurer/orderflow/internal/domains/users/adapters/http/mapper"
	userdomain "github.com/Apurer/orderflow/internal/domains/users/domain"
	userports "github.com/Apurer/orderflow/internal/domains/users/ports"
	apierrors "github.com/Apurer/orderflow/internal/shared/errors"
)

// UserAPI exposes the user directory.
type UserAPI struct {
	service userports.Service
}

// NewUserAPI wires dependencies.
func NewUserAPI(service userports.Service) UserAPI {
	return UserAPI{service: service}
}

// userResponse is the wire shape of a directory entry.
type userResponse struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func fromTransportUser(user userhttpmapper.User) userResponse {
	return userResponse{Id: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
}

func fromTransportUsers(users []userhttpmapper.User) []userResponse {
	result := make([]userResponse, 0, len(users))
	for _, user := range users {
		result = append(result, fromTransportUser(user))
	}
	return result
}

// Get /v1/users
// Lists directory entries, optionally filtered by role
func (api *UserAPI) ListUsers(c *gin.Context) {
	users, err := api.service.List(c.Request.Context(), userdomain.Role(c.Query("role")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportUsers(userhttpmapper.FromDomainUsers(users)))
}

// Get /v1/users/:userId
// Get user by id
func (api *UserAPI) GetUser(c *gin.Context) {
	user, err := api.service.GetByID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportUser(userhttpmapper.FromDomainUser(user)))
}

// Post /v1/users
// Registers a directory entry. Admin only.
func (api *UserAPI) RegisterUser(c *gin.Context) {
	if actorFrom(c).Role != domain.RoleAdmin {
		respondProblem(c, apierrors.ErrForbidden.WithDetail("only Admin may register users"))
		return
	}
	var payload RegisterUserRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := userhttpmapper.ToDomainUser(userhttpmapper.User{
		ID:    payload.Id,
		Name:  payload.Name,
		Email: payload.Email,
		Role:  payload.Role,
	})
	if err != nil {
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
		return
	}
	saved, err := api.service.Register(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromTransportUser(userhttpmapper.FromDomainUser(saved)))
}
