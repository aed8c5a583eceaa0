package notifier

import (
	"fmt"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
)

// ScheduleProposedButtons returns the operator's fixed action set for a
// freshly computed proposal.
func ScheduleProposedButtons(proposalID string) []InlineButton {
	return []InlineButton{
		{Label: "✅ Approve", CallbackData: "approve:" + proposalID},
		{Label: "❌ Reject", CallbackData: "reject:" + proposalID},
		{Label: "✏️ Revise", CallbackData: "revise:" + proposalID},
	}
}

// FactoryFailureButtons returns the two recovery actions offered on a
// factory-failure notification (spec §4.6).
func FactoryFailureButtons(soID, poID string) []InlineButton {
	return []InlineButton{
		{Label: "🛑 Cancel order", CallbackData: fmt.Sprintf("cancel_order:%s:%s", soID, poID)},
		{Label: "🔁 Restart order", CallbackData: fmt.Sprintf("restart_order:%s:%s", soID, poID)},
	}
}

// ScheduleProposedMessage formats the text accompanying a proposal's
// Gantt image.
func ScheduleProposedMessage(policy domain.Policy, summary domain.ConflictSummary) string {
	status := "✅ no conflicts"
	if !summary.Clean {
		status = fmt.Sprintf("⚠️ %d order(s) at risk: %v", len(summary.LateOrderIDs), summary.LateOrderIDs)
	}
	return fmt.Sprintf(
		"*New schedule proposed*\nPolicy: `%s`\nWorst slack: %d min\nAverage slack: %.1f min\n%s",
		policy, summary.WorstSlack, summary.AverageSlack, status,
	)
}

// FactoryFailureMessage formats the text accompanying a factory-failure
// notification's image.
func FactoryFailureMessage(soID, poID, description string) string {
	msg := fmt.Sprintf("*Factory failure reported*\nSales order: `%s`\nProduction order: `%s`", soID, poID)
	if description != "" {
		msg += fmt.Sprintf("\nDescription: %s", description)
	}
	return msg
}
