package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/notifier"
	"github.com/bitfantasy/novaboard-scheduler/internal/orchestrator"
)

// WebhookHandler receives the operator channel's inbound updates —
// button presses and typed commands — and drives the Orchestrator.
type WebhookHandler struct {
	orch   *orchestrator.Orchestrator
	notify *proposalNotifier
	log    *zap.Logger
}

func NewWebhookHandler(orch *orchestrator.Orchestrator, channel operatorChannel, charts chartStore, email digestSender, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		orch: orch,
		notify: &proposalNotifier{
			channel: channel,
			charts:  charts,
			email:   email,
			log:     log,
		},
		log: log,
	}
}

// Handle is POST /telegram/webhook.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequest(c, "could not read request body")
		return
	}

	action, err := notifier.ParseUpdate(body)
	if err != nil {
		// Unrecognised updates are acknowledged, not errored: the
		// operator channel sends many update kinds we don't act on.
		c.Status(http.StatusOK)
		return
	}

	var proposal *domain.Proposal
	ctx := c.Request.Context()
	switch action.Kind {
	case notifier.ActionApprove:
		err = h.orch.Approve(ctx, action.ProposalID)
	case notifier.ActionReject:
		err = h.orch.Reject(ctx, action.ProposalID)
	case notifier.ActionRevise:
		proposal, err = h.orch.Revise(ctx, action.ProposalID, action.Text)
	case notifier.ActionCancelOrder:
		proposal, err = h.orch.CancelOrder(ctx, action.SalesOrderID)
	case notifier.ActionRestartOrder:
		proposal, err = h.orch.RestartOrder(ctx, action.SalesOrderID, action.POID)
	case notifier.ActionRequestNewSchedule:
		proposal, err = h.orch.ComputeProposal(ctx, domain.PolicyEDF, nil)
	}

	if err == nil && proposal != nil {
		h.notify.push(ctx, proposal)
	}

	if err != nil {
		h.log.Warn("operator action failed", zap.String("kind", string(action.Kind)), zap.Error(err))
	}
	c.Status(http.StatusOK)
}
