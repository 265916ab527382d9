package orderflowserver

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	orderports "github.com/Apurer/orderflow/internal/domains/orders/ports"
	apierrors "github.com/Apurer/orderflow/internal/shared/errors"
)

// Identity headers set by the upstream authentication proxy.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

const actorContextKey = "orderflow.actor"

// RequireIdentity trusts the identity headers and rejects requests without a
// user id or with an unknown role. Missing names are looked up in directory.
func RequireIdentity(directory orderports.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := domain.User{
			ID:    strings.TrimSpace(c.GetHeader(HeaderUserID)),
			Name:  strings.TrimSpace(c.GetHeader(HeaderUserName)),
			Email: strings.TrimSpace(c.GetHeader(HeaderUserEmail)),
			Role:  domain.Role(strings.TrimSpace(c.GetHeader(HeaderUserRole))),
		}
		if err := actor.Validate(); err != nil {
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail(err.Error()))
			c.Abort()
			return
		}
		if actor.Name == "" && directory != nil {
			if name, err := directory.DisplayName(c.Request.Context(), actor.ID); err == nil {
				actor.Name = name
			}
		}
		if actor.Name == "" {
			actor.Name = actor.ID
		}
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.User {
	if value, ok := c.Get(actorContextKey); ok {
		if actor, ok := value.(domain.User); ok {
			return actor
		}
	}
	return domain.User{}
}
