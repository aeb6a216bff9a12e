// Package notify carries transient notifications ("flash" messages) across a
// redirect in a short-lived cookie.
package notify

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// Level is the severity a notification is shown with.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is one notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// CookieName is the cookie the pending messages travel in.
const CookieName = "clinic_flash"

const (
	pendingKey = "notify.pending"
	poppedKey  = "notify.popped"
	maxPending = 8
)

// ---------------------------------------------------------------------------
// Flash
// ---------------------------------------------------------------------------

// Flash queues messages for the next rendered page.
type Flash struct {
	secure bool
}

// New returns a Flash; secure marks the cookie Secure (HTTPS deployments).
func New(secure bool) *Flash {
	return &Flash{secure: secure}
}

func (f *Flash) Success(c echo.Context, text string) { f.Add(c, LevelSuccess, text) }
func (f *Flash) Error(c echo.Context, text string)   { f.Add(c, LevelError, text) }
func (f *Flash) Info(c echo.Context, text string)    { f.Add(c, LevelInfo, text) }

// Add queues a message. It is visible to Pop in the same request (a page
// re-rendered in place) and, through the cookie, to the next request (a page
// reached by redirect).
func (f *Flash) Add(c echo.Context, level Level, text string) {
	if text == "" {
		return
	}
	pending := append(pendingOf(c), Message{Level: level, Text: text})
	c.Set(pendingKey, pending)

	all := append(append([]Message{}, f.incoming(c)...), pending...)
	if len(all) > maxPending {
		all = all[len(all)-maxPending:]
	}
	f.write(c, all)
}

// Pop returns every queued message and clears the cookie.
func (f *Flash) Pop(c echo.Context) []Message {
	msgs := append(append([]Message{}, f.incoming(c)...), pendingOf(c)...)
	c.Set(pendingKey, []Message(nil))
	c.Set(poppedKey, true)
	if _, err := c.Cookie(CookieName); err == nil || len(msgs) > 0 {
		f.clear(c)
	}
	return msgs
}

// incoming is what the browser sent, unless already consumed this request.
func (f *Flash) incoming(c echo.Context) []Message {
	if popped, _ := c.Get(poppedKey).(bool); popped {
		return nil
	}
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	return decode(ck.Value)
}

func pendingOf(c echo.Context) []Message {
	msgs, _ := c.Get(pendingKey).([]Message)
	return msgs
}

func (f *Flash) write(c echo.Context, msgs []Message) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    encode(msgs),
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (f *Flash) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func encode(msgs []Message) string {
	data, err := json.Marshal(msgs)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// decode ignores anything it cannot read; a tampered cookie just shows nothing.
func decode(v string) []Message {
	data, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}
