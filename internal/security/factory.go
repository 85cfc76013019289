package security

import (
	"github.com/rs/zerolog"

	"github.com/corvusHold/seclink/internal/config"
	evsvc "github.com/corvusHold/seclink/internal/events/service"
	"github.com/corvusHold/seclink/internal/security/bridge"
	"github.com/corvusHold/seclink/internal/security/directory"
	"github.com/corvusHold/seclink/internal/security/dispatch"
	"github.com/corvusHold/seclink/internal/security/domain"
	"github.com/corvusHold/seclink/internal/security/legacy"
)

// Runtime holds both listener APIs and the bridges between them.
type Runtime struct {
	// Listeners is the new-API listener directory.
	Listeners *directory.Registry[domain.Listener]
	// LegacyListeners is the legacy listener directory.
	LegacyListeners *directory.Registry[legacy.Listener]

	Dispatcher *dispatch.Dispatcher
	Hub        *legacy.Hub
}

// New wires the dispatcher, the legacy hub and both bridges. The bridges are
// registered first in their directories; an audit listener follows when
// cfg.AuditEnabled is set.
func New(cfg config.Config, log zerolog.Logger) (*Runtime, error) {
	propagation, err := dispatch.ParsePropagation(cfg.DispatchPropagation)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Listeners:       directory.New[domain.Listener](),
		LegacyListeners: directory.New[legacy.Listener](),
	}
	rt.Dispatcher = dispatch.New(rt.Listeners,
		dispatch.WithLogger(log.With().Str("component", "dispatch").Logger()),
		dispatch.WithPropagation(propagation),
	)
	rt.Hub = legacy.NewHub(rt.LegacyListeners)
	rt.Hub.SetLogger(log.With().Str("component", "legacy").Logger())

	toNew := bridge.NewLegacyToNew(rt.Dispatcher)
	toNew.SetLogger(log.With().Str("component", "bridge").Logger())
	if _, err := rt.LegacyListeners.Register(toNew); err != nil {
		return nil, err
	}

	toLegacy := bridge.NewNewToLegacy(rt.Hub)
	toLegacy.SetLogger(log.With().Str("component", "bridge").Logger())
	if _, err := rt.Listeners.Register(toLegacy); err != nil {
		return nil, err
	}

	if cfg.AuditEnabled {
		audit := evsvc.NewAuditListener(evsvc.NewLogger(log.With().Str("component", "audit").Logger()))
		audit.SetLogger(log)
		if _, err := rt.Listeners.Register(audit); err != nil {
			return nil, err
		}
	}
	return rt, nil
}
