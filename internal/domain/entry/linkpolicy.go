package entry

// DeriveLinkPolicy computes the outbound-link policy from the entry's stored
// facts, in priority order: contest winners are always indexable, then
// premium-tier entries, then any operator override, and everything else is
// non-indexable. The result is not a source of truth; a corrected tier or a
// new override is applied by simply recomputing.
func DeriveLinkPolicy(e Entry) LinkPolicy {
	if e.EverWon() {
		return PolicyIndexable
	}
	if e.IsPremium() {
		return PolicyIndexable
	}
	if e.LinkPolicyOverride != nil {
		return *e.LinkPolicyOverride
	}
	return PolicyNonIndexable
}
