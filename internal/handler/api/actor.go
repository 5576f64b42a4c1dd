package api

import (
	"net/http"

	"villa-booking/internal/handler/httperr"
	"villa-booking/internal/handler/middleware"
	"villa-booking/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	errUnauthenticated = errs.New("unauthenticated")
	errActorMismatch   = errs.Define("userId does not match the authenticated user", errs.ErrForbidden)
)

// actorID returns the authenticated user. A userId in the body must name the same user.
func actorID(c *gin.Context, bodyUserID *uuid.UUID) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return uuid.Nil, false
	}
	if bodyUserID != nil && *bodyUserID != uuid.Nil && *bodyUserID != userID {
		httperr.Abort(c, errActorMismatch, "Forbidden")
		return uuid.Nil, false
	}
	return userID, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
