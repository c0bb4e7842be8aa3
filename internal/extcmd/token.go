package extcmd

import "sync/atomic"

// Generation is a document's session counter.
type Generation struct {
	n atomic.Uint64
}

// Current returns the current generation.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}

// next advances the generation and returns the new value.
func (g *Generation) next() uint64 {
	return g.n.Add(1)
}

// InvocationToken ties a job to the generation its session started in.
// Tokens are values; two tokens are equal when all fields are.
type InvocationToken struct {
	SessionID  string
	Generation uint64
	owner      *Generation
}

// IsCurrent reports whether the owning document is still at the token's
// generation.
func (t InvocationToken) IsCurrent() bool {
	return t.owner != nil && t.owner.Current() == t.Generation
}

// InvalidateOwner advances the owner's generation if it is still the
// token's. It returns false when the token was already stale.
func (t InvocationToken) InvalidateOwner() bool {
	if t.owner == nil {
		return false
	}
	return t.owner.n.CompareAndSwap(t.Generation, t.Generation+1)
}

func newToken(sessionID string, g *Generation) InvocationToken {
	return InvocationToken{
		SessionID:  sessionID,
		Generation: g.next(),
		owner:      g,
	}
}
