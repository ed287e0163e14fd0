package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/papersynth/papersynth/internal/application/dto"
	"github.com/papersynth/papersynth/internal/infrastructure/signing"
	"github.com/papersynth/papersynth/internal/infrastructure/workspace"
	apperrors "github.com/papersynth/papersynth/pkg/errors"
)

// DownloadHandler serves artifacts referenced by signed URLs.
type DownloadHandler struct {
	workspaces *workspace.Manager
	signer     *signing.Signer
	now        func() time.Time
}

// NewDownloadHandler builds the signed download endpoint. A nil signer means
// signed downloads are disabled and every request 404s.
func NewDownloadHandler(workspaces *workspace.Manager, signer *signing.Signer) *DownloadHandler {
	return &DownloadHandler{workspaces: workspaces, signer: signer, now: time.Now}
}

// Download handles GET /download?rid=&file=&exp=&sig=.
func (h *DownloadHandler) Download(c *gin.Context) {
	if h.signer == nil {
		dto.SendError(c, apperrors.ErrNotFound("signed downloads are disabled"))
		return
	}

	rid := c.Query("rid")
	file := c.Query("file")
	if rid == "" || file == "" || c.Query("exp") == "" || c.Query("sig") == "" {
		dto.SendError(c, apperrors.ErrPayloadInvalid("missing download parameters"))
		return
	}
	// Traversal in either segment is a malformed request, checked before the
	// signature so crafted paths never reach the filesystem.
	if !workspace.ValidID(rid) || !workspace.SafeFileName(file) {
		dto.SendError(c, apperrors.ErrPayloadInvalid("malformed download reference"))
		return
	}

	ref := signing.ParseReference(rid, file, c.Query("exp"), c.Query("sig"))
	switch h.signer.Verify(ref, h.now()) {
	case signing.Invalid:
		dto.SendError(c, apperrors.ErrSignatureInvalid())
		return
	case signing.Expired:
		dto.SendError(c, apperrors.ErrLinkExpired())
		return
	}

	ws, err := h.workspaces.Open(rid)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	if !ws.Has(file) {
		dto.SendError(c, apperrors.ErrNotFound("artifact"))
		return
	}
	path, err := ws.ArtifactPath(file)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	c.FileAttachment(path, file)
}
