package chat

// Action is the closed set of quick actions the assistant may suggest.
type Action string

const (
	ActionCrewSwap      Action = "crew_swap"
	ActionDelayImpact   Action = "delay_impact"
	ActionLegalityCheck Action = "legality_check"
)

// prefills maps each known action to the canned query it stages in the
// input box. Staging is a UI convenience; nothing is submitted.
var prefills = map[Action]string{
	ActionCrewSwap:      "Find standby crew who can legally take over the affected flight",
	ActionDelayImpact:   "What is the knock-on effect of this delay on the rest of today's roster?",
	ActionLegalityCheck: "Check duty-time legality for the crew on the affected flight",
}

// ParseAction maps a wire action id onto the known set.
func ParseAction(id string) (Action, bool) {
	a := Action(id)
	_, ok := prefills[a]
	return a, ok
}

// Prefill returns the canned query for a known action id. Unknown ids
// yield ok=false and no prefill.
func Prefill(id string) (string, bool) {
	a, ok := ParseAction(id)
	if !ok {
		return "", false
	}
	return prefills[a], true
}
