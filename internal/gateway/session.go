package gateway

// Session is attached to the request context by the auth middleware
// and carries the caller's identity for the lifetime of one request.
type Session struct {
	HashedUserID string
	DisplayName  string
}

// localDeviceSession is the fixed identity every request authenticates
// as in unpaired mode.
func localDeviceSession() Session {
	return Session{HashedUserID: "local-device", DisplayName: "Local Device"}
}
