// Package flash carries one-shot status messages across a redirect in a
// signed cookie.
package flash

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

// Kinds of flash message.
const (
	Success = "success"
	Error   = "error"
)

const cookieName = "nestor_flash"

// Message is what the next page shows once.
type Message struct {
	Kind string            `json:"kind"`
	Text string            `json:"text"`
	Errs map[string]string `json:"errs,omitempty"`
}

// Messenger signs and reads flash cookies.
type Messenger struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// New returns a Messenger whose cookies are signed with hashKey.
func New(hashKey []byte, secure bool) *Messenger {
	sc := securecookie.New(hashKey, nil)
	sc.MaxAge(300)
	return &Messenger{sc: sc, secure: secure}
}

// Set writes m for the next request.
func (f *Messenger) Set(w http.ResponseWriter, m Message) error {
	enc, err := f.sc.Encode(cookieName, m)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    enc,
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop reads and clears the pending message. A missing or tampered cookie
// yields ok=false.
func (f *Messenger) Pop(w http.ResponseWriter, r *http.Request) (Message, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Message{}, false
	}
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})

	var m Message
	if err := f.sc.Decode(cookieName, c.Value, &m); err != nil {
		return Message{}, false
	}
	return m, true
}
