package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func testOwnerManager() *ownerManager {
	return &ownerManager{hmacSecret: bytes.Repeat([]byte("k"), 32), isDev: true}
}

func TestOwnerCookieRoundTrip(t *testing.T) {
	om := testOwnerManager()
	id := uuid.New()

	rec := httptest.NewRecorder()
	om.setOwnerCookie(rec, id)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("set %d cookies, want 1", len(cookies))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	got, err := om.OwnerID(req)
	if err != nil {
		t.Fatalf("OwnerID() error = %v", err)
	}
	if got != id {
		t.Errorf("OwnerID() = %v, want %v", got, id)
	}
}

func TestOwnerCookieRejection(t *testing.T) {
	om := testOwnerManager()
	id := uuid.New()
	valid := id.String() + "." + om.sign(id.String())

	other := &ownerManager{hmacSecret: bytes.Repeat([]byte("x"), 32)}

	tests := []struct {
		name  string
		value string
	}{
		{"no signature", id.String()},
		{"tampered uuid", uuid.NewString() + "." + om.sign(id.String())},
		{"tampered signature", id.String() + "." + om.sign("something else")},
		{"wrong key", id.String() + "." + other.sign(id.String())},
		{"not a uuid", "hello." + om.sign("hello")},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: ownerCookieName, Value: tt.value})

			if _, err := om.OwnerID(req); !errors.Is(err, errBadOwnerCookie) {
				t.Errorf("OwnerID(%q) error = %v, want errBadOwnerCookie", tt.value, err)
			}
		})
	}

	// Sanity: the valid value still verifies.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: ownerCookieName, Value: valid})
	if _, err := om.OwnerID(req); err != nil {
		t.Errorf("OwnerID(valid) error = %v", err)
	}
}

func TestOwnerCookieSecureFlag(t *testing.T) {
	for _, tt := range []struct {
		isDev      bool
		wantSecure bool
	}{
		{isDev: true, wantSecure: false},
		{isDev: false, wantSecure: true},
	} {
		om := &ownerManager{hmacSecret: bytes.Repeat([]byte("k"), 32), isDev: tt.isDev}
		rec := httptest.NewRecorder()
		om.setOwnerCookie(rec, uuid.New())

		c := rec.Result().Cookies()[0]
		if c.Secure != tt.wantSecure {
			t.Errorf("isDev=%v: Secure = %v, want %v", tt.isDev, c.Secure, tt.wantSecure)
		}
		if !c.HttpOnly {
			t.Errorf("isDev=%v: cookie is not HttpOnly", tt.isDev)
		}
	}
}
