package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/corkboard-dev/corkboard/internal/apperrors"
)

// respondError translates service errors into HTTP responses. Errors without
// an explicit status become a 500 and get logged.
func respondError(ctx *gin.Context, err error) {
	status, message := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Unhandled service error")
	}

	ctx.JSON(status, gin.H{"error": message})
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}

	return uint(id), true
}
