package model

// PrincipalKind discriminates the outcome of bearer credential resolution.
type PrincipalKind int

const (
	// KindNone means the credential resolved to nothing.
	KindNone PrincipalKind = iota
	// KindUser means the credential was a valid access token.
	KindUser
	// KindService means the credential was a valid service key.
	KindService
)

// Principal is the resolved identity behind a bearer credential.
// Exactly one of User or Key is set, matching Kind; a zero Principal
// is KindNone. Built fresh for every request, never cached.
type Principal struct {
	Kind PrincipalKind
	User *User
	Key  *APIKey
}

// IsNone reports whether the credential resolved to nothing.
func (p Principal) IsNone() bool {
	return !p.IsUser() && !p.IsService()
}

// IsUser reports whether the principal is an authenticated user.
func (p Principal) IsUser() bool {
	return p.Kind == KindUser && p.User != nil
}

// IsService reports whether the principal is an authenticated service key.
func (p Principal) IsService() bool {
	return p.Kind == KindService && p.Key != nil
}

// HasPermission checks a permission against the principal.
// Users authorize via role elsewhere; permission checks apply to
// service keys only.
func (p Principal) HasPermission(perm string) bool {
	if !p.IsService() {
		return false
	}
	return p.Key.HasPermission(perm)
}
