package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/codec"
	"github.com/alexanderramin/termplan/internal/repository"
)

const maxBodyBytes = 1 << 20

type termPlanHandler struct {
	repo repository.TermPlanRepo
	log  *zap.Logger
}

func (h *termPlanHandler) me(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": userID})
}

// get serves a plan only to its owner; other users see 404.
func (h *termPlanHandler) get(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	if q := c.Query("user_id"); q != "" && q != userID {
		abortWithError(c, http.StatusForbidden, "user_id does not match token")
		return
	}

	rec, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "term plan not found")
			return
		}
		h.internalError(c, err)
		return
	}
	if rec.UserID != userID {
		abortWithError(c, http.StatusNotFound, "term plan not found")
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *termPlanHandler) list(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	records, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if records == nil {
		records = []*codec.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// put upserts the plan at :id for the token's user.
func (h *termPlanHandler) put(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	rec, ok := h.bindRecord(c)
	if !ok {
		return
	}
	rec.ID = c.Param("id")
	rec.UserID = userID

	stored, err := h.repo.Upsert(c.Request.Context(), &rec)
	if err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			abortWithError(c, http.StatusForbidden, "term plan belongs to another user")
			return
		}
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// create stores a new plan under a fresh id.
func (h *termPlanHandler) create(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	rec, ok := h.bindRecord(c)
	if !ok {
		return
	}
	rec.ID = uuid.New().String()
	rec.UserID = userID
	if rec.Goals == nil {
		rec.Goals = []string{}
	}
	if len(rec.Data) == 0 {
		rec.Data = json.RawMessage(`{"students":{}}`)
	}

	if err := h.repo.Create(c.Request.Context(), &rec); err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// bindRecord decodes the body leniently. An empty body is an empty record.
func (h *termPlanHandler) bindRecord(c *gin.Context) (codec.Record, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "body exceeds 1 MiB")
			return codec.Record{}, false
		}
		abortWithError(c, http.StatusBadRequest, "could not read body")
		return codec.Record{}, false
	}
	if len(raw) == 0 {
		return codec.Record{}, true
	}
	rec, err := codec.DecodeRecord(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "body must be a JSON object")
		return codec.Record{}, false
	}
	return rec, true
}

func (h *termPlanHandler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.log.Error("term plan request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	abortWithError(c, http.StatusInternalServerError, "internal error")
}
