package orderflowserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	orderapp "github.com/Apurer/orderflow/internal/domains/orders/application"
	userapp "github.com/Apurer/orderflow/internal/domains/users/application"
	userports "github.com/Apurer/orderflow/internal/domains/users/ports"
	apierrors "github.com/Apurer/orderflow/internal/shared/errors"
	"github.com/Apurer/orderflow/internal/shared/validation"
)

var responder = apierrors.NewChainedResponder("", orderErrorMapper, userErrorMapper)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

// respondServiceError translates application errors into RFC 7807 responses.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

// respondBindError reports malformed or invalid request bodies.
func respondBindError(c *gin.Context, err error) {
	respondProblem(c, apierrors.NewValidationProblem(validation.FieldErrors(err)).WithDetail(err.Error()))
}

func orderErrorMapper(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, orderapp.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, orderapp.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, orderapp.ErrForbidden):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	case errors.Is(err, orderapp.ErrInvalidArgument):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, orderapp.ErrUpload):
		return apierrors.ErrUpstream.WithDetail(err.Error()), true
	case errors.Is(err, orderapp.ErrInternal):
		return apierrors.ErrInternal.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func userErrorMapper(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, userports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, userapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
