package auth

/*
ServerCallContext carries the per-call state a transport establishes
before the request handler runs: who is calling, and which protocol
extensions the caller asked for.
*/
type ServerCallContext struct {
	User User
	// RequestedExtensions are the extension URIs the caller declared.
	RequestedExtensions []string
	// ActivatedExtensions are the subset the agent actually supports; the
	// transport echoes them back to the caller.
	ActivatedExtensions []string
}

// NewServerCallContext builds a call context for the given user. A nil
// user is treated as anonymous.
func NewServerCallContext(user User) *ServerCallContext {
	if user == nil {
		user = AnonymousUser{}
	}
	return &ServerCallContext{User: user}
}

// Activate records the requested extensions the agent supports, given the
// set of extension URIs the agent declares.
func (call *ServerCallContext) Activate(supported map[string]bool) {
	for _, uri := range call.RequestedExtensions {
		if supported[uri] {
			call.ActivatedExtensions = append(call.ActivatedExtensions, uri)
		}
	}
}
