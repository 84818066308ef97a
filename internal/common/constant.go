package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "clubhouse_session"

// FlashCookieName is the cookie carrying a one-shot flash message between a
// redirecting POST and the page it redirects to.
const FlashCookieName = "clubhouse_flash"

// EventTimeLayout is the wire layout of calendar event times (HTML
// datetime-local inputs).
const EventTimeLayout = "2006-01-02T15:04"

// ChatTimeLayout formats chat message timestamps.
const ChatTimeLayout = "15:04"
