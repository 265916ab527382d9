package orderflowserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	orderhttpmapper "github.com/Apurer/orderflow/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	orderports "github.com/Apurer/orderflow/internal/domains/orders/ports"
	apierrors "github.com/Apurer/orderflow/internal/shared/errors"
)

// MaxTransitionFiles caps the attachments accepted by one transition.
const MaxTransitionFiles = 10

// HeaderIdempotencyKey makes POST /v1/orders safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders bounded context service and import workflows.
type OrderAPI struct {
	service orderports.Service
	imports orderports.ImportOrchestrator
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service orderports.Service, imports orderports.ImportOrchestrator) OrderAPI {
	return OrderAPI{service: service, imports: imports}
}

// Get /v1/orders
// Lists orders. sort=recent orders by creation time, mine=true keeps orders the caller touched.
func (api *OrderAPI) ListOrders(c *gin.Context) {
	input := ordertypes.ListOrdersInput{SortByRecency: c.Query("sort") == "recent"}
	if mine, _ := strconv.ParseBool(c.Query("mine")); mine {
		input.ForUserID = actorFrom(c).ID
	}
	orders, err := api.service.ListOrders(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

// Post /v1/orders
// Creates an order at AtTeam. Retries carrying the same Idempotency-Key replay the first order.
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	items := make([]orderhttpmapper.LineItem, 0, len(payload.LineItems))
	for _, li := range payload.LineItems {
		items = append(items, orderhttpmapper.LineItem{Name: li.Name, Quantity: li.Quantity})
	}
	input := ordertypes.CreateOrderInput{
		Actor:              actorFrom(c),
		Customer:           domain.Customer(payload.Customer),
		ShippingAddress:    domain.ShippingAddress(payload.ShippingAddress),
		ProductDescription: payload.ProductDescription,
		LineItems:          orderhttpmapper.ToLineItems(items),
		TextUnderDesign:    payload.TextUnderDesign,
		Priority:           domain.Priority(payload.Priority),
		Note:               payload.Note,
		IdempotencyKey:     c.GetHeader(HeaderIdempotencyKey),
	}
	order, err := api.service.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Location", "/v1/orders/"+order.ID)
	respondOrder(c, http.StatusCreated, order)
}

// Get /v1/orders/:orderId
// Returns one order with its version as ETag
func (api *OrderAPI) GetOrder(c *gin.Context) {
	order, err := api.service.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOrder(c, http.StatusOK, order)
}

// Post /v1/orders/:orderId/transitions
// Moves an order to a new status, optionally with attachments
func (api *OrderAPI) TransitionOrder(c *gin.Context) {
	expected, ok := expectedVersion(c)
	if !ok {
		return
	}
	payload, files, err := bindTransition(c)
	if err != nil {
		respondBindError(c, err)
		return
	}
	input := ordertypes.TransitionInput{
		OrderID:         c.Param("orderId"),
		ExpectedVersion: expected,
		Actor:           actorFrom(c),
		Target:          domain.Status(payload.Status),
		Note:            payload.Note,
		NoteAudience:    domain.Role(payload.NoteAudience),
		Rejection:       payload.Rejection,
		DigitizerID:     payload.DigitizerId,
		VendorID:        payload.VendorId,
		DigitizerStatus: payload.DigitizerStatus,
		VendorStatus:    payload.VendorStatus,
		Shipment:        orderhttpmapper.ToShipment(payload.Shipment),
		Files:           files,
	}
	if payload.Priority != nil {
		priority := domain.Priority(*payload.Priority)
		input.Priority = &priority
	}
	order, err := api.service.Transition(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOrder(c, http.StatusOK, order)
}

// Post /v1/orders/:orderId/notes
// Appends a note to a thread
func (api *OrderAPI) AddNote(c *gin.Context) {
	expected, ok := expectedVersion(c)
	if !ok {
		return
	}
	var payload AddNoteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := api.service.AddNote(c.Request.Context(), ordertypes.AddNoteInput{
		OrderID:         c.Param("orderId"),
		ExpectedVersion: expected,
		Actor:           actorFrom(c),
		Content:         payload.Content,
		Audience:        domain.Role(payload.Audience),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOrder(c, http.StatusCreated, order)
}

// Patch /v1/orders/:orderId/notes/:noteId
// Edits a note
func (api *OrderAPI) EditNote(c *gin.Context) {
	expected, ok := expectedVersion(c)
	if !ok {
		return
	}
	var payload EditNoteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := api.service.EditNote(c.Request.Context(), ordertypes.EditNoteInput{
		OrderID:         c.Param("orderId"),
		ExpectedVersion: expected,
		Actor:           actorFrom(c),
		NoteID:          c.Param("noteId"),
		Content:         payload.Content,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOrder(c, http.StatusOK, order)
}

// Delete /v1/orders/:orderId/attachments/:attachmentId
// Removes an uploaded attachment
func (api *OrderAPI) RemoveAttachment(c *gin.Context) {
	expected, ok := expectedVersion(c)
	if !ok {
		return
	}
	order, err := api.service.RemoveAttachment(c.Request.Context(), ordertypes.RemoveAttachmentInput{
		AttachmentIdentifier: ordertypes.AttachmentIdentifier{
			OrderID:      c.Param("orderId"),
			AttachmentID: c.Param("attachmentId"),
		},
		ExpectedVersion: expected,
		Actor:           actorFrom(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOrder(c, http.StatusOK, order)
}

// Get /v1/orders/:orderId/attachments/:attachmentId
// Streams attachment content from the blob store
func (api *OrderAPI) DownloadAttachment(c *gin.Context) {
	download, err := api.service.DownloadAttachment(c.Request.Context(), ordertypes.AttachmentIdentifier{
		OrderID:      c.Param("orderId"),
		AttachmentID: c.Param("attachmentId"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer download.Body.Close()
	name := download.Attachment.Name
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
	}
	c.DataFromReader(http.StatusOK, -1, contentType, download.Body, headers)
}

// Post /v1/orders/import
// Pulls new orders from the external feed. Team and Admin only.
func (api *OrderAPI) ImportOrders(c *gin.Context) {
	if !actorFrom(c).Role.Privileged() {
		respondProblem(c, apierrors.ErrForbidden.WithDetail("only Team or Admin may trigger an import"))
		return
	}
	if api.imports == nil {
		respondProblem(c, apierrors.ErrInternal.WithDetail("order import is not configured"))
		return
	}
	var payload ImportOrdersRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondBindError(c, err)
			return
		}
	}
	input := ordertypes.ImportOrdersInput{}
	if payload.Since != nil {
		input.Since = payload.Since.UTC()
	}
	report, err := api.imports.ImportOrders(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromImportReport(report))
}

func respondOrder(c *gin.Context, status int, order *domain.Order) {
	c.Header("ETag", formatETag(order.Version))
	c.JSON(status, orderhttpmapper.FromDomainOrder(order))
}

func formatETag(version int64) string {
	return fmt.Sprintf("%q", strconv.FormatInt(version, 10))
}

// expectedVersion reads If-Match. Absent means no version check; a malformed
// value is rejected before any work.
func expectedVersion(c *gin.Context) (*int64, bool) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" || raw == "*" {
		return nil, true
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version <= 0 {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail("If-Match must carry an order version"))
		return nil, false
	}
	return &version, true
}

func bindTransition(c *gin.Context) (TransitionRequest, []ordertypes.FileUpload, error) {
	var payload TransitionRequest
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		err := c.ShouldBindJSON(&payload)
		return payload, nil, err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return payload, nil, err
	}
	raw := form.Value["payload"]
	if len(raw) == 0 {
		return payload, nil, errors.New("multipart transition requires a payload field")
	}
	if err := json.Unmarshal([]byte(raw[0]), &payload); err != nil {
		return payload, nil, err
	}
	if err := binding.Validator.ValidateStruct(&payload); err != nil {
		return payload, nil, err
	}
	headers := form.File["files"]
	if len(headers) > MaxTransitionFiles {
		return payload, nil, fmt.Errorf("at most %d files per transition", MaxTransitionFiles)
	}
	files := make([]ordertypes.FileUpload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			return payload, nil, err
		}
		files = append(files, upload)
	}
	return payload, files, nil
}

func readUpload(header *multipart.FileHeader) (ordertypes.FileUpload, error) {
	file, err := header.Open()
	if err != nil {
		return ordertypes.FileUpload{}, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return ordertypes.FileUpload{}, err
	}
	return ordertypes.FileUpload{Name: header.Filename, Data: data}, nil
}
