package auth

// =============================================================================
// General
// =============================================================================

// RequireTenant checks that a tenant is known.
// Returns (true, "") if present, or (false, reason) if not.
func RequireTenant(ctx Context) (bool, string) {
	if !ctx.Authenticated || ctx.TenantID == "" {
		return false, "organization required"
	}
	return true, ""
}
