package entities

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decision is the outcome of checking a user against a guarded route.
type Decision struct {
	Allow    bool
	Redirect string
}

// Authorize decides whether user may open a route that requires role.
// An empty required role only demands a signed-in user. Roles must match exactly.
func Authorize(required Role, user *User) Decision {
	if user == nil {
		return Decision{Redirect: LoginPath}
	}
	if required != "" && user.Role != required {
		return Decision{Redirect: HomePath}
	}
	return Decision{Allow: true}
}
