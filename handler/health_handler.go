package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/mcq-gen-be/types"
)

type HealthHandler struct {
	ready func() bool
}

func NewHealthHandler(ready func() bool) *HealthHandler {
	return &HealthHandler{ready: ready}
}

func (h *HealthHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{
		Status: "ok",
		Ready:  h.ready(),
	})
}
