package gate

// View is the rendering decision for a protected view
type View int

const (
	// ViewLoading is shown during session bootstrap. Neither the login
	// form nor protected content may flash in this state.
	ViewLoading View = iota

	// ViewLogin means nobody is signed in.
	ViewLogin

	// ViewDenied means valid credentials without an active admin role.
	// Distinct from ViewLogin: the password was correct, the privilege is
	// missing. Rendered as an explicit access-denied message.
	ViewDenied

	// ViewContent means the operator may see admin content.
	ViewContent
)

// Decide maps an auth state to exactly one view. It is a pure function:
// all transitions are driven by AuthState changes, there are no timers and
// no terminal states (an admin revoked mid-session moves Content to Denied
// on the next verification).
func Decide(state AuthState) View {
	switch {
	case state.Loading:
		return ViewLoading
	case state.User == nil:
		return ViewLogin
	case state.AdminInfo == nil:
		return ViewDenied
	default:
		return ViewContent
	}
}

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewLogin:
		return "login"
	case ViewDenied:
		return "denied"
	case ViewContent:
		return "content"
	default:
		return "unknown"
	}
}
