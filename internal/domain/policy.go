package domain

// Policy is the closed set of ordering policies the Policy Sorter
// accepts. Operator free-text is parsed into one of these at the
// channel boundary; the core never sees raw strings.
type Policy string

const (
	PolicyEDF      Policy = "EDF"
	PolicyPriority Policy = "PRIORITY"
	PolicySJF      Policy = "SJF"
	PolicyLJF      Policy = "LJF"
	PolicySlack    Policy = "SLACK"
	PolicyCustomer Policy = "CUSTOMER"
)

// ParsePolicy maps an operator-supplied token to a Policy, defaulting to
// EDF when the token is empty (the spec's stated default).
func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case PolicyEDF, PolicyPriority, PolicySJF, PolicyLJF, PolicySlack, PolicyCustomer:
		return Policy(s), true
	case "":
		return PolicyEDF, true
	default:
		return "", false
	}
}
