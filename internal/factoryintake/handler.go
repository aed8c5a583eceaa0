package factoryintake

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/gateway"
	"github.com/bitfantasy/novaboard-scheduler/internal/notifier"
)

// photoSender is the subset of the operator channel this package needs;
// satisfied by *notifier.Client.
type photoSender interface {
	SendPhoto(ctx context.Context, image []byte, filename, caption string, buttons ...notifier.InlineButton) error
}

// Handler serves POST /factory/failure: a multipart failure report from
// the factory floor.
type Handler struct {
	gw     gateway.Gateway
	tr     tracker
	notify photoSender
	log    *zap.Logger
}

func NewHandler(gw gateway.Gateway, tr tracker, notify photoSender, log *zap.Logger) *Handler {
	return &Handler{gw: gw, tr: tr, notify: notify, log: log}
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handle is POST /factory/failure. It accepts a multipart form with a
// required "image" field and optional "description"/"po_id" fields.
func (h *Handler) Handle(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, response{Status: "error", Message: "no image provided; send multipart form with an 'image' field"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response{Status: "error", Message: "could not read uploaded image"})
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response{Status: "error", Message: "could not read uploaded image"})
		return
	}

	description := c.PostForm("description")
	explicitPOID := c.PostForm("po_id")

	po, soID, err := resolve(c.Request.Context(), h.gw, h.tr, explicitPOID, time.Now().UTC())
	if err != nil {
		if _, ok := err.(*domain.ResolutionError); ok {
			c.JSON(http.StatusOK, response{Status: "unresolved", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response{Status: "error", Message: err.Error()})
		return
	}

	if err := h.dispatch(c.Request.Context(), po, soID, image, description); err != nil {
		h.log.Warn("failed to push factory-failure notification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, response{Status: "error", Message: "failed to notify the operator channel"})
		return
	}

	c.JSON(http.StatusOK, response{Status: "accepted", Message: fmt.Sprintf("notified operator about production order %s", po.ID)})
}

func (h *Handler) dispatch(ctx context.Context, po domain.ProductionOrder, soID string, image []byte, description string) error {
	caption := notifier.FactoryFailureMessage(soID, po.ID, description)
	buttons := notifier.FactoryFailureButtons(soID, po.ID)
	return h.notify.SendPhoto(ctx, image, "failure.jpg", caption, buttons...)
}
