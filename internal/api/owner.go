package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const ownerCookieName = "kc_uid"

var errBadOwnerCookie = errors.New("api: missing or invalid owner cookie")

// ownerManager mints and verifies the anonymous visitor identity: a UUID
// bound to an HMAC signature inside one cookie. No accounts, no
// passwords; the cookie is the whole identity.
type ownerManager struct {
	hmacSecret []byte
	isDev      bool
}

// OwnerID extracts and verifies the visitor UUID from the uid cookie.
func (om *ownerManager) OwnerID(r *http.Request) (uuid.UUID, error) {
	c, err := r.Cookie(ownerCookieName)
	if err != nil {
		return uuid.Nil, errBadOwnerCookie
	}

	value, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return uuid.Nil, errBadOwnerCookie
	}
	if !hmac.Equal([]byte(om.sign(value)), []byte(sig)) {
		return uuid.Nil, errBadOwnerCookie
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errBadOwnerCookie
	}
	return id, nil
}

// setOwnerCookie installs a signed uid cookie. The Secure flag is
// dropped in dev mode so plain HTTP works locally.
func (om *ownerManager) setOwnerCookie(w http.ResponseWriter, id uuid.UUID) {
	value := id.String()
	http.SetCookie(w, &http.Cookie{
		Name:     ownerCookieName,
		Value:    value + "." + om.sign(value),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   !om.isDev,
		SameSite: http.SameSiteLaxMode,
	})
}

func (om *ownerManager) sign(value string) string {
	mac := hmac.New(sha256.New, om.hmacSecret)
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
