package role

// Resolve derives the session role from the two identity sources using the
// default alias registry. The locally issued role string wins when it is
// recognizable; otherwise the identity provider's public metadata "role" entry
// is consulted. Anything absent, malformed, or unknown resolves to [Member] —
// privilege is never the fallback.
func Resolve(localRole string, publicMetadata map[string]any) Role {
	return ResolveWith(defaultRegistry, localRole, publicMetadata)
}

// ResolveWith is [Resolve] against a caller-supplied registry.
func ResolveWith(reg *Registry, localRole string, publicMetadata map[string]any) Role {
	if reg == nil {
		return Member
	}

	if r, ok := reg.Canonical(localRole); ok {
		return r
	}

	if raw, ok := publicMetadata["role"]; ok {
		if s, ok := raw.(string); ok {
			if r, ok := reg.Canonical(s); ok {
				return r
			}
		}
	}

	return Member
}
