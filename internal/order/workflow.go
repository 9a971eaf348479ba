package order

import (
	"procurement-be/internal/access"
	"procurement-be/internal/apperror"
)

type Action string

const (
	ActionValidate Action = "validate"
	ActionReject   Action = "reject"
	ActionRevise   Action = "revise"
	ActionResubmit Action = "resubmit"
	ActionCancel   Action = "cancel"
)

type transition struct {
	from       []Status
	to         Status
	permission access.Action
}

// transitions is the complete workflow. Anything not listed is refused;
// Validated and Cancelled appear in no from-list and are therefore terminal.
var transitions = map[Action]transition{
	ActionValidate: {
		from:       []Status{StatusSubmitted},
		to:         StatusValidated,
		permission: access.ActionValidateOrder,
	},
	ActionReject: {
		from:       []Status{StatusSubmitted},
		to:         StatusRejected,
		permission: access.ActionRejectOrder,
	},
	ActionRevise: {
		from:       []Status{StatusSubmitted, StatusRejected},
		to:         StatusUnderRevision,
		permission: access.ActionReviseOrder,
	},
	ActionResubmit: {
		from:       []Status{StatusUnderRevision},
		to:         StatusSubmitted,
		permission: access.ActionResubmitOrder,
	},
	ActionCancel: {
		from:       []Status{StatusSubmitted, StatusRejected},
		to:         StatusCancelled,
		permission: access.ActionCancelOrder,
	},
}

func (a Action) Valid() bool {
	_, ok := transitions[a]
	return ok
}

// Permission is the access-policy action guarding a.
func (a Action) Permission() access.Action {
	return transitions[a].permission
}

// Next returns the status reached by applying action to current.
func Next(current Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return "", ErrUnknownAction
	}
	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}
	return "", apperror.Newf(apperror.KindInvalidTransition,
		"cannot %s an order that is %s", action, current)
}
