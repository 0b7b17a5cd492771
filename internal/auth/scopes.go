package auth

// Known OAuth scopes used by the API.
const (
	ScopeFitnessRead  = "fitness:read"
	ScopeFitnessWrite = "fitness:write"
)
