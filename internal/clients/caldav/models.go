package caldav

// Calendar is a remote calendar collection discovered on the server.
type Calendar struct {
	Path        string
	DisplayName string
}
