package models

// TokenIdentity is what a verified access token proves about the caller.
type TokenIdentity struct {
	UserID   int
	Username string
}

// Session is the outcome of login/signup/refresh handed to the transport
// layer: the payload to render plus the refresh cookie to set or clear.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         User
	// ClearCookie is set when a presented refresh token turned out to be
	// dead and the transport must drop the cookie.
	ClearCookie bool
}
