package platform

import (
	"errors"
	"fmt"
)

type MutationKind string

const (
	// the mutation was already applied (eg, post already retweeted)
	KindAlreadyDone MutationKind = "already-done"
	// the account is not allowed to perform the mutation (blocked, protected, suspended)
	KindPermissionDenied MutationKind = "permission-denied"
	// the platform refused the mutation for any other reason (policy, limits, not found)
	KindRejected MutationKind = "rejected"
	// the request did not complete
	KindTransport MutationKind = "transport"
)

type Mutation string

const (
	MutationRetweet  Mutation = "retweet"
	MutationLike     Mutation = "like"
	MutationFollow   Mutation = "follow"
	MutationUnfollow Mutation = "unfollow"
)

// Failure of a single side-effecting platform call. Callers decide whether a failure is fatal
// for their step; the error itself carries no policy.
type MutationError struct {
	Mutation Mutation
	Kind     MutationKind
	// post or account id the mutation targeted
	Target  string
	Message string
	Wrapped error
}

func (me *MutationError) Error() string {
	if me.Message != "" {
		return fmt.Sprintf("%s %s failed (%s): %s", me.Mutation, me.Target, me.Kind, me.Message)
	}
	return fmt.Sprintf("%s %s failed (%s)", me.Mutation, me.Target, me.Kind)
}

func (me *MutationError) Unwrap() error {
	return me.Wrapped
}

// Returns the mutation kind of err, or KindTransport if err is not a MutationError.
func KindOf(err error) MutationKind {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindTransport
}
