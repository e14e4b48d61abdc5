// Package events names the department events emitted after state
// transitions commit and routes them to the staff roles that act on
// them.
package events

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/edflow/edflow/internal/platform/auth"
	"github.com/edflow/edflow/internal/platform/ws"
)

// Event kinds. Kinds are part of the client contract; renaming one is
// a breaking change for the front desk boards.
const (
	TriageNew            = "triage:new"
	TriageUpdated        = "triage:updated"
	PaymentPaid          = "payment:paid"
	ConsultationStarted  = "consultation:started"
	ConsultationFinished = "consultation:finished"
	AdminUpdated         = "admin:updated"
)

// routes maps each kind to the roles whose worklists it invalidates.
// Admin edits can touch any part of a visit, so every role is told.
var routes = map[string][]string{
	TriageNew:            {auth.RoleCashier, auth.RoleDoctor},
	TriageUpdated:        {auth.RoleCashier, auth.RoleDoctor},
	PaymentPaid:          {auth.RoleDoctor},
	ConsultationStarted:  {auth.RoleDoctor, auth.RoleNurse},
	ConsultationFinished: {auth.RoleDoctor, auth.RoleNurse},
	AdminUpdated:         {auth.RoleAdmin, auth.RoleNurse, auth.RoleCashier, auth.RoleDoctor},
}

// RolesFor returns the roles notified for a kind, nil for unknown
// kinds.
func RolesFor(kind string) []string {
	return routes[kind]
}

// Publisher is the seam domain services emit through. Implementations
// must be safe to call from request goroutines.
type Publisher interface {
	Publish(kind, visitID string, payload any)
}

// HubPublisher broadcasts events to the websocket hub.
type HubPublisher struct {
	hub *ws.Hub
	log zerolog.Logger
}

func NewHubPublisher(hub *ws.Hub, log zerolog.Logger) *HubPublisher {
	return &HubPublisher{hub: hub, log: log.With().Str("component", "events").Logger()}
}

func (p *HubPublisher) Publish(kind, visitID string, payload any) {
	roles := RolesFor(kind)
	if len(roles) == 0 {
		p.log.Warn().Str("kind", kind).Msg("event kind has no route")
		return
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			p.log.Error().Err(err).Str("kind", kind).Msg("marshal event payload")
			return
		}
		raw = data
	}

	chans := make([]string, len(roles))
	for i, r := range roles {
		chans[i] = ws.RoleChannel(r)
	}
	p.hub.Broadcast(ws.Message{Kind: kind, VisitID: visitID, Payload: raw}, chans...)
	p.log.Debug().Str("kind", kind).Str("visit_id", visitID).Msg("event published")
}

// NopPublisher discards events. Used in tests and one-shot commands.
type NopPublisher struct{}

func (NopPublisher) Publish(kind, visitID string, payload any) {}
