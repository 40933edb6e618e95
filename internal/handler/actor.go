package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/aegisbank/ledger-engine/internal/domain"
	"github.com/aegisbank/ledger-engine/pkg/response"
)

// Identity headers set by the API gateway. Authentication happens upstream;
// the role claim is trusted as-is.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	roleAdmin = "admin"
)

// actorFromRequest resolves the caller's identity from the gateway headers.
// A missing or malformed user id ends the request with 401.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	userID, err := uuid.Parse(r.Header.Get(headerUserID))
	if err != nil {
		response.Unauthorized(w, "Missing or invalid "+headerUserID+" header")
		return domain.Actor{}, false
	}

	return domain.Actor{
		UserID: userID,
		Admin:  strings.EqualFold(r.Header.Get(headerUserRole), roleAdmin),
	}, true
}

// pathUUID parses a UUID path variable, ending the request with 400 on
// malformed input.
func pathUUID(w http.ResponseWriter, vars map[string]string, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(vars[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}
