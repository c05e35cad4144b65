package http

import "net/http"

// Identity headers are stamped by the upstream gateway after authentication;
// this service trusts them and takes no position on role granularity beyond
// admin or not.
const (
	userIDHeader   = "X-User-ID"
	userRoleHeader = "X-User-Role"

	roleAdmin = "admin"
)

func requestUser(r *http.Request) (string, bool) {
	id := r.Header.Get(userIDHeader)
	return id, id != ""
}

func isAdmin(r *http.Request) bool {
	return r.Header.Get(userRoleHeader) == roleAdmin
}
