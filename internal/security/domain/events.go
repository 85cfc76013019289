package domain

import "sort"

// AuthenticationEvent is fired when a user was authenticated with any credentials.
type AuthenticationEvent struct {
	header
	details UserDetails
}

// NewAuthenticationEvent builds an authentication event that carries no user details.
func NewAuthenticationEvent(username, source string, opts ...Option) (AuthenticationEvent, error) {
	h, err := newHeader(username, source, opts)
	if err != nil {
		return AuthenticationEvent{}, err
	}
	return AuthenticationEvent{header: h}, nil
}

// NewAuthenticationEventWithDetails builds an authentication event whose username
// comes from details and which supplies details to consumers that need them.
func NewAuthenticationEventWithDetails(details UserDetails, source string, opts ...Option) (AuthenticationEvent, error) {
	if details == nil {
		return AuthenticationEvent{}, ErrNilUserDetails
	}
	h, err := newHeader(details.Username(), source, opts)
	if err != nil {
		return AuthenticationEvent{}, err
	}
	return AuthenticationEvent{header: h, details: details}, nil
}

func (AuthenticationEvent) Kind() Kind { return KindAuthenticated }

// UserDetails returns the details supplied at construction, if any.
func (e AuthenticationEvent) UserDetails() (UserDetails, bool) {
	return e.details, e.details != nil
}

// failure holds the optional reason/cause pair of the failure events.
type failure struct {
	hasDetail bool
	reason    string
	cause     error
}

func newFailure(reason string, cause error) (failure, error) {
	if reason == "" && cause == nil {
		return failure{}, ErrMissingFailureDetail
	}
	return failure{hasDetail: true, reason: reason, cause: cause}, nil
}

func causeFailure(cause error) (failure, error) {
	if cause == nil {
		return failure{}, ErrMissingFailureDetail
	}
	return failure{hasDetail: true, reason: cause.Error(), cause: cause}, nil
}

// HasDetail reports whether the event was built with a reason or a cause.
// When true, at least one of Reason and Cause is set.
func (f failure) HasDetail() bool { return f.hasDetail }

// Reason is the human readable failure reason, empty when absent.
func (f failure) Reason() string { return f.reason }

// Cause is the underlying error, nil when absent.
func (f failure) Cause() error { return f.cause }

// AuthenticationFailureEvent is fired when the last authentication layer rejected the credentials.
type AuthenticationFailureEvent struct {
	header
	failure
}

func NewAuthenticationFailureEvent(username, source string, opts ...Option) (AuthenticationFailureEvent, error) {
	h, err := newHeader(username, source, opts)
	if err != nil {
		return AuthenticationFailureEvent{}, err
	}
	return AuthenticationFailureEvent{header: h}, nil
}

// NewAuthenticationFailureWithDetail requires reason or cause to be set.
func NewAuthenticationFailureWithDetail(username, source, reason string, cause error, opts ...Option) (AuthenticationFailureEvent, error) {
	h, err := newHeader(username, source, opts)
	if err != nil {
		return AuthenticationFailureEvent{}, err
	}
	f, err := newFailure(reason, cause)
	if err != nil {
		return AuthenticationFailureEvent{}, err
	}
	return AuthenticationFailureEvent{header: h, failure: f}, nil
}

// NewAuthenticationFailureWithCause uses the cause message as the reason.
func NewAuthenticationFailureWithCause(username, source string, cause error, opts ...Option) (AuthenticationFailureEvent, error) {
	h, err := newHeader(username, source, opts)
	if err != nil {
		return AuthenticationFailureEvent{}, err
	}
	f, err := causeFailure(cause)
	if err != nil {
		return AuthenticationFailureEvent{}, err
	}
	return AuthenticationFailureEvent{header: h, failure: f}, nil
}

func (AuthenticationFailureEvent) Kind() Kind { return KindFailedToAuthenticate }

// LoginEvent is fired once the authenticated user has a session.
type LoginEvent struct {
	header
	authorities AuthoritySet
}

func NewLoginEvent(username, source string, authorities []string, opts ...Option) (LoginEvent, error) {
	h, err := newHeader(username, source, opts)
	if err != nil {
		return LoginEvent{}, err
	}
	set, err := NewAuthoritySet(authorities...)
	if err != nil {
		return LoginEvent{}, err
	}
	return LoginEvent{header: h, authorities: set}, nil
}

func (LoginEvent) Kind() Kind { return KindLoggedIn }

// Authorities returns the granted authorities of the session.
func (e LoginEvent) Authorities() AuthoritySet { return e.authorities }

// LoginFailureEvent is fired when a user failed to log in.
type LoginFailureEvent struct {
	header
	failure
}

func NewLoginFailureEvent(username, source string, opts ...Option) (LoginFailureEvent, error) {
	h, err := newHeader(username, source, opts)
	if err != nil {
		return LoginFailureEvent{}, err
	}
	return LoginFailureEvent{header: h}, nil
}

// NewLoginFailureWithDetail requires reason or cause to be set.
func NewLoginFailureWithDetail(username, source, reason string, cause error, opts ...Option) (LoginFailureEvent, error) {
	h, err := newHeader(username, source, opts)
	if err != nil {
		return LoginFailureEvent{}, err
	}
	f, err := newFailure(reason, cause)
	if err != nil {
		return LoginFailureEvent{}, err
	}
	return LoginFailureEvent{header: h, failure: f}, nil
}

// NewLoginFailureWithCause uses the cause message as the reason.
func NewLoginFailureWithCause(username, source string, cause error, opts ...Option) (LoginFailureEvent, error) {
	h, err := newHeader(username, source, opts)
	if err != nil {
		return LoginFailureEvent{}, err
	}
	f, err := causeFailure(cause)
	if err != nil {
		return LoginFailureEvent{}, err
	}
	return LoginFailureEvent{header: h, failure: f}, nil
}

func (LoginFailureEvent) Kind() Kind { return KindFailedToLogIn }

// LogoutEvent is fired when a user logs out.
type LogoutEvent struct {
	header
}

func NewLogoutEvent(username, source string, opts ...Option) (LogoutEvent, error) {
	h, err := newHeader(username, source, opts)
	if err != nil {
		return LogoutEvent{}, err
	}
	return LogoutEvent{header: h}, nil
}

func (LogoutEvent) Kind() Kind { return KindLoggedOut }

// AuthoritySet is an immutable set of authority names.
type AuthoritySet struct {
	names map[string]struct{}
}

// NewAuthoritySet copies names, dropping duplicates.
func NewAuthoritySet(names ...string) (AuthoritySet, error) {
	set := AuthoritySet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n == "" {
			return AuthoritySet{}, ErrEmptyAuthority
		}
		set.names[n] = struct{}{}
	}
	return set, nil
}

func (s AuthoritySet) Len() int { return len(s.names) }

func (s AuthoritySet) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Slice returns a sorted copy of the names.
func (s AuthoritySet) Slice() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var (
	_ Event = AuthenticationEvent{}
	_ Event = AuthenticationFailureEvent{}
	_ Event = LoginEvent{}
	_ Event = LoginFailureEvent{}
	_ Event = LogoutEvent{}
)
