package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteAbout is the about page route.
	RouteAbout = "/about"
	// RouteContacts is the contacts page route.
	RouteContacts = "/contacts"
	// RouteProfile is the profile page route.
	RouteProfile = "/profile"
	// RouteComments is the comments page route.
	RouteComments = "/comments"
	// RouteCommentDelete is the comment deletion route pattern.
	RouteCommentDelete = RouteComments + "/{id}/delete"
	// RouteTheme is the theme preference route.
	RouteTheme = "/theme"
	// RouteLogin is the OAuth login route pattern.
	RouteLogin = "/login/{provider}"
	// RouteLoginCallback is the OAuth callback route pattern.
	RouteLoginCallback = RouteLogin + "/callback"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
)

const (
	redirectHome     = RouteRoot
	redirectComments = RouteComments
)

// HeaderContentType is the Content-Type HTTP header name.
const HeaderContentType = "Content-Type"
