// Package access decides whether a verified caller may act on a resource
// scoped to an identity.
package access

// Reason explains a denied decision
type Reason string

// Deny reasons
const (
	ReasonIdentityMismatch Reason = "identity_mismatch"
	ReasonMissingIdentity  Reason = "missing_identity"
)

// Decision is the outcome of Authorize. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the allowing decision
var Allow = Decision{Allowed: true}

// Deny returns a denying decision with the given reason
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Authorize allows the request iff the claimed identity equals the requested
// identity byte for byte. An empty claimed identity is always denied, so an
// unscoped request can never pass as a match; callers route unscoped
// requests through their public code path instead.
func Authorize(claimed, requested string) Decision {
	if claimed == "" {
		return Deny(ReasonMissingIdentity)
	}
	if claimed != requested {
		return Deny(ReasonIdentityMismatch)
	}
	return Allow
}
