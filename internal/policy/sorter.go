// Package policy implements the Policy Sorter: a pure, total function
// mapping a set of sales orders and a policy to a stably-ordered
// sequence.
package policy

import (
	"sort"
	"time"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
)

// Order bundles a SalesOrder with the figures its sort keys need:
// processing time (from its product's BOM) and customer rank.
type Order struct {
	SalesOrder domain.SalesOrder
	Product    domain.Product
}

func (o Order) productionMinutes() int {
	return o.SalesOrder.ProductionMinutes(o.Product)
}

// Sort returns a new ordered sequence; it never mutates orders.
func Sort(orders []Order, p domain.Policy, now time.Time) []Order {
	out := make([]Order, len(orders))
	copy(out, orders)

	less := lessFunc(p, now)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(p domain.Policy, now time.Time) func(a, b Order) bool {
	switch p {
	case domain.PolicyPriority:
		return func(a, b Order) bool {
			if a.SalesOrder.Priority != b.SalesOrder.Priority {
				return a.SalesOrder.Priority < b.SalesOrder.Priority
			}
			if !a.SalesOrder.Deadline.Equal(b.SalesOrder.Deadline) {
				return a.SalesOrder.Deadline.Before(b.SalesOrder.Deadline)
			}
			return a.SalesOrder.ID < b.SalesOrder.ID
		}
	case domain.PolicySJF:
		return func(a, b Order) bool {
			am, bm := a.productionMinutes(), b.productionMinutes()
			if am != bm {
				return am < bm
			}
			if !a.SalesOrder.Deadline.Equal(b.SalesOrder.Deadline) {
				return a.SalesOrder.Deadline.Before(b.SalesOrder.Deadline)
			}
			return a.SalesOrder.ID < b.SalesOrder.ID
		}
	case domain.PolicyLJF:
		return func(a, b Order) bool {
			am, bm := a.productionMinutes(), b.productionMinutes()
			if am != bm {
				return am > bm
			}
			if !a.SalesOrder.Deadline.Equal(b.SalesOrder.Deadline) {
				return a.SalesOrder.Deadline.Before(b.SalesOrder.Deadline)
			}
			return a.SalesOrder.ID < b.SalesOrder.ID
		}
	case domain.PolicySlack:
		return func(a, b Order) bool {
			as := slackKey(a, now)
			bs := slackKey(b, now)
			if as != bs {
				return as < bs
			}
			if !a.SalesOrder.Deadline.Equal(b.SalesOrder.Deadline) {
				return a.SalesOrder.Deadline.Before(b.SalesOrder.Deadline)
			}
			return a.SalesOrder.ID < b.SalesOrder.ID
		}
	case domain.PolicyCustomer:
		return func(a, b Order) bool {
			ar, br := customerRank(a), customerRank(b)
			if ar != br {
				return ar < br
			}
			if !a.SalesOrder.Deadline.Equal(b.SalesOrder.Deadline) {
				return a.SalesOrder.Deadline.Before(b.SalesOrder.Deadline)
			}
			return a.SalesOrder.Priority < b.SalesOrder.Priority
			// No id tiebreak: this is the one policy the spec leaves
			// without a total order, so equal customer/deadline/priority
			// orders rely on stable sort to keep input order.
		}
	default: // domain.PolicyEDF and unrecognised fall back to EDF
		return func(a, b Order) bool {
			if !a.SalesOrder.Deadline.Equal(b.SalesOrder.Deadline) {
				return a.SalesOrder.Deadline.Before(b.SalesOrder.Deadline)
			}
			if a.SalesOrder.Priority != b.SalesOrder.Priority {
				return a.SalesOrder.Priority < b.SalesOrder.Priority
			}
			return a.SalesOrder.ID < b.SalesOrder.ID
		}
	}
}

// slackKey approximates EDF weighted by processing time:
// deadline - now - production_minutes, expressed in minutes.
func slackKey(o Order, now time.Time) int {
	deadlineMinutes := int(o.SalesOrder.Deadline.Sub(now).Minutes())
	return deadlineMinutes - o.productionMinutes()
}

func customerRank(o Order) int {
	if o.SalesOrder.CustomerRank == 0 {
		return 99
	}
	return o.SalesOrder.CustomerRank
}
