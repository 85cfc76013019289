package legacy

import "github.com/corvusHold/seclink/internal/security/domain"

// UserDetails is a placeholder built from an authentication event that did
// not supply details of its own: enabled, non-expired, unlocked and without
// authorities.
type UserDetails struct {
	domain.User
	originalEvent  domain.AuthenticationEvent
	originalSource string
}

func NewUserDetails(ev domain.AuthenticationEvent) UserDetails {
	return UserDetails{
		User:           userFor(ev.Username()),
		originalEvent:  ev,
		originalSource: ev.Source(),
	}
}

func userFor(username string) domain.User {
	u, err := domain.NewUser(username, "", domain.ActiveAccount)
	if err != nil {
		// events never carry an empty username
		return domain.User{}
	}
	return u
}

// OriginalEvent is the event the details were derived from.
func (u UserDetails) OriginalEvent() domain.AuthenticationEvent { return u.originalEvent }

// OriginalSource is the source before any forwarding marker was applied.
func (u UserDetails) OriginalSource() string { return u.originalSource }

var _ domain.UserDetails = UserDetails{}
