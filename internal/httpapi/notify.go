package httpapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/notifier"
)

// operatorChannel is the subset of the Telegram client this package
// needs to push a freshly computed proposal; satisfied by
// *notifier.Client.
type operatorChannel interface {
	SendPhoto(ctx context.Context, image []byte, filename, caption string, buttons ...notifier.InlineButton) error
}

// chartStore is the subset of the Gantt renderer this package needs to
// re-fetch a previously uploaded chart image; satisfied by
// *ganttrenderer.Renderer.
type chartStore interface {
	Download(ctx context.Context, objectName string) ([]byte, error)
}

// digestSender is the subset of the email notifier this package needs;
// satisfied by *emailer.Emailer.
type digestSender interface {
	Send(subject, body string) error
}

// proposalNotifier pushes a freshly computed or revised proposal to the
// operator channel (the Gantt image plus approve/reject/revise buttons)
// and mirrors the same summary to the email distribution list. Either
// channel may be nil, in which case that half is skipped; push never
// fails the request it's attached to, it only logs.
type proposalNotifier struct {
	channel operatorChannel
	charts  chartStore
	email   digestSender
	log     *zap.Logger
}

func (n *proposalNotifier) push(ctx context.Context, proposal *domain.Proposal) {
	if proposal == nil {
		return
	}

	if n.channel != nil && proposal.GanttKey != "" {
		image, err := n.charts.Download(ctx, proposal.GanttKey)
		if err != nil {
			n.log.Warn("failed to fetch gantt chart for operator push", zap.Error(err))
		} else {
			buttons := notifier.ScheduleProposedButtons(proposal.Schedule.ID)
			if err := n.channel.SendPhoto(ctx, image, "schedule.png", proposal.Summary, buttons...); err != nil {
				n.log.Warn("failed to push proposal to the operator channel", zap.Error(err))
			}
		}
	}

	if n.email != nil {
		if err := n.email.Send("Schedule proposed", proposal.Summary); err != nil {
			n.log.Warn("failed to send proposal email digest", zap.Error(err))
		}
	}
}
