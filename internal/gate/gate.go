// Package gate implements the per-user onboarding state machine:
//
//	Unverified --get_link--> LinkViewed --subscribed--> Verified
//
// Transitions never regress and repeating one is a no-op.
package gate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/gatebot/core/logger"
	"github.com/m3rciful/gatebot/internal/store"
)

// State is the onboarding progress derived from a store.Record.
type State int

const (
	Unverified State = iota
	LinkViewed
	Verified
)

func (s State) String() string {
	switch s {
	case Unverified:
		return "unverified"
	case LinkViewed:
		return "link_viewed"
	case Verified:
		return "verified"
	}
	return "unknown"
}

// StateOf maps a record to its state.
func StateOf(rec store.Record) State {
	switch {
	case rec.Allowed:
		return Verified
	case rec.ClickedLink:
		return LinkViewed
	}
	return Unverified
}

var (
	// ErrUnauthorized is returned when a user presses a button addressed to someone else.
	ErrUnauthorized = errors.New("gate: action addressed to another user")
	// ErrOrderViolation is returned when subscription is confirmed before the link was viewed.
	ErrOrderViolation = errors.New("gate: link must be viewed first")
)

// Machine applies gate transitions on top of a Store.
type Machine struct {
	store   *store.Store
	ownerID int64
}

// New creates a Machine. ownerID 0 disables the owner exemption.
func New(st *store.Store, ownerID int64) *Machine {
	return &Machine{store: st, ownerID: ownerID}
}

// IsOwner reports whether userID is the exempt owner identity.
func (m *Machine) IsOwner(userID int64) bool {
	return m.ownerID != 0 && userID == m.ownerID
}

// Check reports whether userID may post. Unseen users get an Unverified record.
// The owner is always allowed and never gets a record.
func (m *Machine) Check(ctx context.Context, userID int64) bool {
	if m.IsOwner(userID) {
		return true
	}
	rec, created := m.store.GetOrCreate(ctx, userID)
	if created {
		logger.Info(ctx, "gate", "gate.user_seen",
			slog.Int64("user_id", userID),
			slog.String("state", Unverified.String()),
		)
	}
	return rec.Allowed
}

// State returns the current state of userID without creating a record.
func (m *Machine) State(userID int64) State {
	rec, _ := m.store.Get(userID)
	return StateOf(rec)
}

// GetLink moves targetID to LinkViewed. It has no precondition besides the
// actor being the target.
func (m *Machine) GetLink(ctx context.Context, actorID, targetID int64) (State, error) {
	if actorID != targetID {
		m.logRejected(ctx, "get_link", actorID, targetID, ErrUnauthorized)
		return m.State(targetID), ErrUnauthorized
	}
	var from State
	rec, err := m.store.Update(ctx, targetID, func(r *store.Record) error {
		from = StateOf(*r)
		r.ClickedLink = true
		return nil
	})
	to := StateOf(rec)
	m.logTransition(ctx, "get_link", targetID, from, to, err)
	return to, err
}

// ConfirmSubscribed moves targetID from LinkViewed to Verified.
func (m *Machine) ConfirmSubscribed(ctx context.Context, actorID, targetID int64) (State, error) {
	if actorID != targetID {
		m.logRejected(ctx, "subscribed", actorID, targetID, ErrUnauthorized)
		return m.State(targetID), ErrUnauthorized
	}
	var from State
	rec, err := m.store.Update(ctx, targetID, func(r *store.Record) error {
		from = StateOf(*r)
		if !r.ClickedLink {
			return ErrOrderViolation
		}
		r.Allowed = true
		return nil
	})
	if errors.Is(err, ErrOrderViolation) {
		m.logRejected(ctx, "subscribed", actorID, targetID, err)
		return StateOf(rec), err
	}
	to := StateOf(rec)
	m.logTransition(ctx, "subscribed", targetID, from, to, err)
	return to, err
}

func (m *Machine) logTransition(ctx context.Context, action string, userID int64, from, to State, err error) {
	attrs := []slog.Attr{
		slog.String("op", action),
		slog.Int64("user_id", userID),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	}
	if err != nil {
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		logger.Warn(ctx, "gate", "gate.transition", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "ok"), slog.Bool("changed", from != to))
	logger.Info(ctx, "gate", "gate.transition", attrs...)
}

func (m *Machine) logRejected(ctx context.Context, action string, actorID, targetID int64, err error) {
	logger.Info(ctx, "gate", "gate.rejected",
		slog.String("status", "skip"),
		slog.String("op", action),
		slog.Int64("user_id", actorID),
		slog.Int64("target_id", targetID),
		slog.String("reason", err.Error()),
	)
}
