package auth

// Known OAuth scopes used by the API surface.
const (
	ScopeTodosRead       = "todos:read"
	ScopeTodosWrite      = "todos:write"
	ScopeActivitiesRead  = "activities:read"
	ScopeActivitiesWrite = "activities:write"
	ScopeProfilesRead    = "profiles:read"
	ScopeChallengesRead  = "challenges:read"
)
