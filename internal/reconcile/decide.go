// Package reconcile writes a generated card.Record into the note store,
// creating, updating or leaving alone the note for the word.
package reconcile

// Action is what Reconcile does with a record.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionSkip
	ActionFail
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionSkip:
		return "skip"
	default:
		return "fail"
	}
}

// Decide maps the notes already matching a word to an action. Several
// matches are never resolved automatically.
func Decide(matches []int64, force bool) Action {
	switch {
	case len(matches) == 0:
		return ActionCreate
	case len(matches) > 1:
		return ActionFail
	case force:
		return ActionUpdate
	default:
		return ActionSkip
	}
}
