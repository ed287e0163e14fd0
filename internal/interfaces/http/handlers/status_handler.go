package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papersynth/papersynth/internal/application/dto"
	"github.com/papersynth/papersynth/internal/infrastructure/workspace"
	"github.com/papersynth/papersynth/pkg/constants"
)

// StatusHandler reports which artifacts exist for a request and mints their
// download URLs.
type StatusHandler struct {
	workspaces *workspace.Manager
	urls       *ArtifactURLBuilder
}

// NewStatusHandler builds the status endpoint.
func NewStatusHandler(workspaces *workspace.Manager, urls *ArtifactURLBuilder) *StatusHandler {
	return &StatusHandler{workspaces: workspaces, urls: urls}
}

// Status handles GET /status/:request_id.
func (h *StatusHandler) Status(c *gin.Context) {
	id := c.Param("request_id")
	ws, err := h.workspaces.Open(id)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	resp := dto.StatusResponse{
		RequestID: id,
		Artifacts: make(map[string]string),
	}
	names := append([]constants.ArtifactName{constants.ArtifactPaper}, constants.DerivedArtifacts...)
	for _, name := range names {
		file := string(name)
		if ws.Has(file) {
			resp.Artifacts[file] = h.urls.URL(id, file)
		} else {
			resp.Missing = append(resp.Missing, file)
		}
	}

	c.JSON(http.StatusOK, resp)
}
