package utils

import (
	"net/http"

	"rentora/globals"
)

func GetUserIDFromRequest(r *http.Request) string {
	ctx := r.Context()
	requestingUserID, ok := ctx.Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

func GetUsernameFromRequest(r *http.Request) string {
	ctx := r.Context()
	username, ok := ctx.Value(globals.UsernameKey).(string)
	if !ok {
		return ""
	}
	return username
}

func GetRolesFromRequest(r *http.Request) []string {
	ctx := r.Context()
	roles, ok := ctx.Value(globals.RoleKey).([]string)
	if !ok {
		return nil
	}
	return roles
}
