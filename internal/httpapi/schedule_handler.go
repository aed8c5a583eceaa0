package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/gateway"
	"github.com/bitfantasy/novaboard-scheduler/internal/orchestrator"
	"github.com/bitfantasy/novaboard-scheduler/internal/store"
)

type ScheduleHandler struct {
	orch   *orchestrator.Orchestrator
	gw     gateway.Gateway
	st     *store.Store
	notify *proposalNotifier
}

func NewScheduleHandler(orch *orchestrator.Orchestrator, gw gateway.Gateway, st *store.Store, channel operatorChannel, charts chartStore, email digestSender, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		orch: orch,
		gw:   gw,
		st:   st,
		notify: &proposalNotifier{
			channel: channel,
			charts:  charts,
			email:   email,
			log:     log,
		},
	}
}

type proposeRequest struct {
	Policy string `json:"policy"`
}

// Propose handles POST /schedule/propose: computes a fresh proposal under
// the requested policy (defaulting to EDF).
func (h *ScheduleHandler) Propose(c *gin.Context) {
	var req proposeRequest
	c.ShouldBindJSON(&req)

	pol, ok := domain.ParsePolicy(req.Policy)
	if !ok {
		BadRequest(c, fmt.Sprintf("unrecognised policy %q", req.Policy))
		return
	}

	proposal, err := h.orch.ComputeProposal(c.Request.Context(), pol, nil)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	h.notify.push(c.Request.Context(), proposal)
	Success(c, proposal)
}

// Approve handles POST /schedule/:id/approve.
func (h *ScheduleHandler) Approve(c *gin.Context) {
	if err := h.orch.Approve(c.Request.Context(), c.Param("id")); err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, nil)
}

// Reject handles POST /schedule/:id/reject.
func (h *ScheduleHandler) Reject(c *gin.Context) {
	if err := h.orch.Reject(c.Request.Context(), c.Param("id")); err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, nil)
}

type reviseRequest struct {
	OperatorText string `json:"operator_text" binding:"required"`
}

// Revise handles POST /schedule/:id/revise.
func (h *ScheduleHandler) Revise(c *gin.Context) {
	var req reviseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	proposal, err := h.orch.Revise(c.Request.Context(), c.Param("id"), req.OperatorText)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	h.notify.push(c.Request.Context(), proposal)
	Success(c, proposal)
}

// CancelOrder handles POST /schedule/cancel_order with {so_id}.
func (h *ScheduleHandler) CancelOrder(c *gin.Context) {
	var req struct {
		SalesOrderID string `json:"so_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	proposal, err := h.orch.CancelOrder(c.Request.Context(), req.SalesOrderID)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	h.notify.push(c.Request.Context(), proposal)
	Success(c, proposal)
}

// RestartOrder handles POST /schedule/restart_order with {so_id, po_id}.
func (h *ScheduleHandler) RestartOrder(c *gin.Context) {
	var req struct {
		SalesOrderID      string `json:"so_id" binding:"required"`
		ProductionOrderID string `json:"po_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	proposal, err := h.orch.RestartOrder(c.Request.Context(), req.SalesOrderID, req.ProductionOrderID)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	h.notify.push(c.Request.Context(), proposal)
	Success(c, proposal)
}

// Dashboard handles GET /schedule/dashboard: counts accepted, in-progress
// and completed sales orders, takes the priority counts and the five
// soonest deadlines from the accepted orders only, and adds the active
// alert count from the currently approved schedule.
func (h *ScheduleHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	accepted, err := h.gw.ListSalesOrders(ctx, domain.SOStatusAccepted)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	inProgress, err := h.gw.ListSalesOrders(ctx, domain.SOStatusInProgress)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	completed, err := h.gw.ListSalesOrders(ctx, domain.SOStatusCompleted)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	summary := domain.DashboardSummary{
		TotalAccepted:   len(accepted),
		TotalInProgress: len(inProgress),
		TotalCompleted:  len(completed),
		CountByPriority: map[int]int{},
	}

	deadlines := make([]domain.UpcomingDeadline, 0, len(accepted))
	for _, so := range accepted {
		summary.CountByPriority[so.Priority]++
		deadlines = append(deadlines, domain.UpcomingDeadline{
			SalesOrderID: so.ID,
			Deadline:     so.Deadline,
			Priority:     so.Priority,
		})
	}
	sort.Slice(deadlines, func(i, j int) bool { return deadlines[i].Deadline.Before(deadlines[j].Deadline) })
	if len(deadlines) > 5 {
		deadlines = deadlines[:5]
	}
	summary.UpcomingDeadlines = deadlines

	if approved, err := h.st.GetApprovedSchedule(ctx); err == nil && approved != nil {
		summary.LateOrderIDs = approved.ConflictIDs
		summary.ActiveAlerts = len(approved.ConflictIDs)
	}

	Success(c, summary)
}

// Export handles GET /schedule/:id/export: renders the schedule's
// entries as an XLSX workbook.
func (h *ScheduleHandler) Export(c *gin.Context) {
	sched, err := h.st.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		NotFound(c, "schedule not found")
		return
	}

	f := excelize.NewFile()
	const sheet = "Schedule"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Sales Order", "Production Order", "Start", "End", "Slack (min)", "Late"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, e := range sched.Entries {
		row := i + 2
		values := []interface{}{
			e.SalesOrderID,
			e.ProductionOrderID,
			e.Start.Format("2006-01-02 15:04"),
			e.End.Format("2006-01-02 15:04"),
			e.SlackMinutes,
			e.Late,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		InternalError(c, "failed to render workbook")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=schedule-%s.xlsx", sched.ID))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// respondPipelineError maps the core's error taxonomy onto HTTP status
// codes per spec §7's propagation policy.
func (h *ScheduleHandler) respondPipelineError(c *gin.Context, err error) {
	switch err.(type) {
	case *domain.ValidationError:
		BadRequest(c, err.Error())
	case *domain.PlanningError:
		Error(c, 42200, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
