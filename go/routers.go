package orderflowserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orderports "github.com/Apurer/orderflow/internal/domains/orders/ports"
	"github.com/Apurer/orderflow/internal/shared/validation"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions bundles the handlers mounted by the router.
type ApiHandleFunctions struct {
	OrderAPI OrderAPI
	UserAPI  UserAPI
	// Directory fills in display names the identity headers omit. Optional.
	Directory orderports.Directory
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds routes to an existing gin engine. Everything under
// /v1 requires the identity headers.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	validation.Register()
	router.GET("/healthz", Healthz)
	v1 := router.Group("/v1", RequireIdentity(handleFunctions.Directory))
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		v1.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc answers routes without a handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"ListOrders",
			http.MethodGet,
			"/orders",
			handleFunctions.OrderAPI.ListOrders,
		},
		{
			"CreateOrder",
			http.MethodPost,
			"/orders",
			handleFunctions.OrderAPI.CreateOrder,
		},
		{
			"ImportOrders",
			http.MethodPost,
			"/orders/import",
			handleFunctions.OrderAPI.ImportOrders,
		},
		{
			"GetOrder",
			http.MethodGet,
			"/orders/:orderId",
			handleFunctions.OrderAPI.GetOrder,
		},
		{
			"TransitionOrder",
			http.MethodPost,
			"/orders/:orderId/transitions",
			handleFunctions.OrderAPI.TransitionOrder,
		},
		{
			"AddNote",
			http.MethodPost,
			"/orders/:orderId/notes",
			handleFunctions.OrderAPI.AddNote,
		},
		{
			"EditNote",
			http.MethodPatch,
			"/orders/:orderId/notes/:noteId",
			handleFunctions.OrderAPI.EditNote,
		},
		{
			"DownloadAttachment",
			http.MethodGet,
			"/orders/:orderId/attachments/:attachmentId",
			handleFunctions.OrderAPI.DownloadAttachment,
		},
		{
			"RemoveAttachment",
			http.MethodDelete,
			"/orders/:orderId/attachments/:attachmentId",
			handleFunctions.OrderAPI.RemoveAttachment,
		},
		{
			"ListUsers",
			http.MethodGet,
			"/users",
			handleFunctions.UserAPI.ListUsers,
		},
		{
			"RegisterUser",
			http.MethodPost,
			"/users",
			handleFunctions.UserAPI.RegisterUser,
		},
		{
			"GetUser",
			http.MethodGet,
			"/users/:userId",
			handleFunctions.UserAPI.GetUser,
		},
	}
}
