package api

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-chi/jwtauth"
)

// OwnerFromContext extracts the caller's owner identifier from the
// verified JWT carried in ctx. The token's "id" claim is the identity;
// numeric claims are normalized to their decimal string form.
func OwnerFromContext(ctx context.Context) (string, bool) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", false
	}

	raw, ok := claims["id"]
	if !ok {
		return "", false
	}

	switch v := raw.(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}
