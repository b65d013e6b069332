package gateway

import (
	"net/http"
	"strings"
)

// bearerToken extracts the caller's upstream bearer token. The gateway
// never validates it itself; the payment gateway is the authority.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
