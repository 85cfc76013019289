package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/corvusHold/seclink/internal/platform/ratelimit"
	"github.com/corvusHold/seclink/internal/platform/validation"
	"github.com/corvusHold/seclink/internal/security"
	"github.com/corvusHold/seclink/internal/security/domain"
)

// Controller exposes call sites for both listener APIs over HTTP so hosts
// and operators can exercise the bridge without an embedding application.
type Controller struct {
	rt *security.Runtime
	// Injected concerns
	jwtMW   echo.MiddlewareFunc
	rlStore ratelimit.Store
	rlLimit int
}

func New(rt *security.Runtime) *Controller {
	return &Controller{rt: rt}
}

// WithJWT protects every route with mw.
func (h *Controller) WithJWT(mw echo.MiddlewareFunc) *Controller {
	h.jwtMW = mw
	return h
}

// WithRateLimit enables a per-IP fixed window of limit requests per minute.
func (h *Controller) WithRateLimit(store ratelimit.Store, limit int) *Controller {
	h.rlStore = store
	h.rlLimit = limit
	return h
}

// Register mounts security routes under /v1/security.
func (h *Controller) Register(e *echo.Echo) {
	var mws []echo.MiddlewareFunc
	if h.jwtMW != nil {
		mws = append(mws, h.jwtMW)
	}
	g := e.Group("/v1/security", mws...)

	var rlFire []echo.MiddlewareFunc
	if h.rlStore != nil {
		p := ratelimit.Policy{Name: "security:fire", Window: time.Minute, Limit: h.rlLimit, Key: ratelimit.KeyIP("security:fire")}
		rlFire = append(rlFire, ratelimit.Middleware(p, h.rlStore))
	}

	g.POST("/legacy/:kind", h.fireLegacy, rlFire...)
	g.POST("/events/:kind", h.fireEvent, rlFire...)
	g.GET("/listeners", h.listListeners)
}

type fireReq struct {
	Username    string   `json:"username" validate:"required"`
	Source      string   `json:"source"`
	Reason      string   `json:"reason"`
	Cause       string   `json:"cause"`
	Authorities []string `json:"authorities" validate:"omitempty,dive,required"`
}

type fireResp struct {
	Kind      domain.Kind `json:"kind"`
	Username  string      `json:"username"`
	Legacy    bool        `json:"legacy"`
	RequestID string      `json:"request_id,omitempty"`
}

type listenersResp struct {
	Listeners       []string `json:"listeners"`
	LegacyListeners []string `json:"legacy_listeners"`
}

func (h *Controller) bind(c echo.Context) (domain.Kind, fireReq, error) {
	var req fireReq
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		return "", req, c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	if err := c.Bind(&req); err != nil {
		return "", req, c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	if err := c.Validate(&req); err != nil {
		return "", req, c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}
	return kind, req, nil
}

// fireLegacy simulates a host legacy call site.
func (h *Controller) fireLegacy(c echo.Context) error {
	kind, req, err := h.bind(c)
	if err != nil || kind == "" {
		return err
	}
	if err := h.legacyFire(c.Request().Context(), kind, req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return h.accepted(c, kind, req.Username, true)
}

// fireEvent fires through the new-API dispatcher.
func (h *Controller) fireEvent(c echo.Context) error {
	kind, req, err := h.bind(c)
	if err != nil || kind == "" {
		return err
	}
	if err := h.dispatch(c.Request().Context(), kind, req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return h.accepted(c, kind, req.Username, false)
}

func (h *Controller) listListeners(c echo.Context) error {
	resp := listenersResp{Listeners: []string{}, LegacyListeners: []string{}}
	for _, l := range h.rt.Listeners.All() {
		resp.Listeners = append(resp.Listeners, fmt.Sprintf("%T", l))
	}
	for _, l := range h.rt.LegacyListeners.All() {
		resp.LegacyListeners = append(resp.LegacyListeners, fmt.Sprintf("%T", l))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Controller) accepted(c echo.Context, kind domain.Kind, username string, legacy bool) error {
	return c.JSON(http.StatusAccepted, fireResp{
		Kind:      kind,
		Username:  username,
		Legacy:    legacy,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}

func (h *Controller) legacyFire(ctx context.Context, kind domain.Kind, req fireReq) error {
	hub := h.rt.Hub
	switch kind {
	case domain.KindAuthenticated:
		u, err := domain.NewUser(req.Username, "", domain.ActiveAccount, req.Authorities...)
		if err != nil {
			return err
		}
		return hub.FireAuthenticated(ctx, u, req.Source)
	case domain.KindFailedToAuthenticate:
		return hub.FireFailedToAuthenticate(ctx, req.Username, req.Source)
	case domain.KindLoggedIn:
		return hub.FireLoggedIn(ctx, req.Username, req.Source)
	case domain.KindFailedToLogIn:
		return hub.FireFailedToLogIn(ctx, req.Username, req.Source)
	case domain.KindLoggedOut:
		return hub.FireLoggedOut(ctx, req.Username, req.Source)
	}
	return domain.ErrUnknownKind{Kind: string(kind)}
}

func (h *Controller) dispatch(ctx context.Context, kind domain.Kind, req fireReq) error {
	d := h.rt.Dispatcher
	var cause error
	if req.Cause != "" {
		cause = errors.New(req.Cause)
	}
	detailed := req.Reason != "" || cause != nil

	switch kind {
	case domain.KindAuthenticated:
		ev, err := domain.NewAuthenticationEvent(req.Username, req.Source)
		if err != nil {
			return err
		}
		d.FireAuthenticated(ctx, ev)
	case domain.KindFailedToAuthenticate:
		var ev domain.AuthenticationFailureEvent
		var err error
		if detailed {
			ev, err = domain.NewAuthenticationFailureWithDetail(req.Username, req.Source, req.Reason, cause)
		} else {
			ev, err = domain.NewAuthenticationFailureEvent(req.Username, req.Source)
		}
		if err != nil {
			return err
		}
		d.FireFailedToAuthenticate(ctx, ev)
	case domain.KindLoggedIn:
		ev, err := domain.NewLoginEvent(req.Username, req.Source, req.Authorities)
		if err != nil {
			return err
		}
		d.FireLoggedIn(ctx, ev)
	case domain.KindFailedToLogIn:
		var ev domain.LoginFailureEvent
		var err error
		if detailed {
			ev, err = domain.NewLoginFailureWithDetail(req.Username, req.Source, req.Reason, cause)
		} else {
			ev, err = domain.NewLoginFailureEvent(req.Username, req.Source)
		}
		if err != nil {
			return err
		}
		d.FireFailedToLogIn(ctx, ev)
	case domain.KindLoggedOut:
		ev, err := domain.NewLogoutEvent(req.Username, req.Source)
		if err != nil {
			return err
		}
		d.FireLoggedOut(ctx, ev)
	default:
		return domain.ErrUnknownKind{Kind: string(kind)}
	}
	return nil
}
