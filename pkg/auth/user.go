package auth

import "time"

// SharedUserID is the synthetic identity every caller shares in
// "shared" mode.
const SharedUserID = "shared_user"

// SharedUserDailyLimit is the effectively unlimited daily quota of the
// shared user.
const SharedUserDailyLimit = 999999

// User is one caller identity with its live quota state.
type User struct {
	UserID        string
	APIKey        string
	DailyLimit    int
	RequestsToday int
	TotalRequests int
	LastRequest   time.Time
	Active        bool
	CreatedAt     time.Time
}

// EffectiveRequestsToday returns the requests-today count as of now,
// applying the lazy day rollover without mutating the record: a last
// request on an earlier calendar day means the count starts over at 0.
func (u *User) EffectiveRequestsToday(now time.Time) int {
	if !sameDay(u.LastRequest, now) {
		return 0
	}
	return u.RequestsToday
}

// charge bills one request at now, rolling the daily counter over first
// when the calendar day changed.
func (u *User) charge(now time.Time) {
	if !sameDay(u.LastRequest, now) {
		u.RequestsToday = 0
	}
	u.RequestsToday++
	u.TotalRequests++
	u.LastRequest = now
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MaskKey returns the first n characters of a credential followed by
// "...", safe for logs and status endpoints.
func MaskKey(key string, n int) string {
	if len(key) > n {
		key = key[:n]
	}
	return key + "..."
}
