package domain

// UserDetails is the richer principal description some consumers need,
// most notably the legacy authenticated callback.
type UserDetails interface {
	Username() string
	Password() string
	Authorities() []string
	Enabled() bool
	AccountNonExpired() bool
	CredentialsNonExpired() bool
	AccountNonLocked() bool
}

// AccountStatus groups the four standard account flags.
type AccountStatus struct {
	Enabled               bool
	AccountNonExpired     bool
	CredentialsNonExpired bool
	AccountNonLocked      bool
}

// ActiveAccount has every flag set.
var ActiveAccount = AccountStatus{Enabled: true, AccountNonExpired: true, CredentialsNonExpired: true, AccountNonLocked: true}

// User is an immutable UserDetails value.
type User struct {
	username    string
	password    string
	status      AccountStatus
	authorities []string
}

func NewUser(username, password string, status AccountStatus, authorities ...string) (User, error) {
	if username == "" {
		return User{}, ErrEmptyUsername
	}
	auth := make([]string, 0, len(authorities))
	for _, a := range authorities {
		if a == "" {
			return User{}, ErrEmptyAuthority
		}
		auth = append(auth, a)
	}
	return User{username: username, password: password, status: status, authorities: auth}, nil
}

func (u User) Username() string { return u.username }
func (u User) Password() string { return u.password }

// Authorities returns a copy of the granted authorities.
func (u User) Authorities() []string {
	out := make([]string, len(u.authorities))
	copy(out, u.authorities)
	return out
}

func (u User) Enabled() bool               { return u.status.Enabled }
func (u User) AccountNonExpired() bool     { return u.status.AccountNonExpired }
func (u User) CredentialsNonExpired() bool { return u.status.CredentialsNonExpired }
func (u User) AccountNonLocked() bool      { return u.status.AccountNonLocked }

var _ UserDetails = User{}
