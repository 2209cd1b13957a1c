// Package cartsync keeps the local cart store and the per-identity remote
// mirror document eventually consistent without feedback loops. The
// reconciliation decision is a pure function so the policy can be tested
// without a store or a network.
package cartsync

import (
	"github.com/massaviva/massaviva-backend/internal/cart"
)

// Origin identifies which side's change fired a reconciliation pass.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

// Action is the outcome of a reconciliation decision.
type Action int

const (
	ActionNone Action = iota
	ActionPushRemote
	ActionApplyLocal
)

// RemoteState is the last known value of the mirror document. Exists
// distinguishes a document that was never written from one holding an empty
// cart: a missing document means "no data" and must not wipe an unsynced
// local cart, while an existing empty document is a real remote state to
// adopt.
type RemoteState struct {
	Exists bool
	Items  []cart.LineItem
}

// Decide returns the action for one reconciliation pass given the local
// line list, the last known remote state and the watermark (the
// fingerprint of the last snapshot this process pushed or applied).
//
// The watermark check keeps a remote-originated update from bouncing back
// to the mirror; the remote-equality check keeps already-agreeing sides
// from writing redundantly.
func Decide(origin Origin, local []cart.LineItem, remote RemoteState, watermark string) Action {
	localFP := cart.Fingerprint(local)

	if !remote.Exists {
		// The mirror was never written for this identity. Adopt the local
		// cart by pushing it, unless it is empty or was already pushed.
		if len(local) == 0 || localFP == watermark {
			return ActionNone
		}
		return ActionPushRemote
	}

	remoteFP := cart.Fingerprint(remote.Items)

	if origin == OriginRemote {
		if remoteFP != localFP {
			return ActionApplyLocal
		}
		return ActionNone
	}

	if localFP != watermark && localFP != remoteFP {
		return ActionPushRemote
	}
	return ActionNone
}
