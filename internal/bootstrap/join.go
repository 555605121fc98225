// Package bootstrap binds the client to a table's session.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"venue-client/internal/api"
	"venue-client/internal/identity"
)

var ErrMissingTable = errors.New("missing table id")

// Backend is the slice of the API that joining needs.
type Backend interface {
	GetTable(ctx context.Context, tableID string) (*api.Table, error)
	ActiveSession(ctx context.Context, tableID string) (*api.Session, error)
	StartSession(ctx context.Context, tableID string) (*api.Session, error)
}

// Result describes a successful join.
type Result struct {
	Table    *api.Table
	Session  *api.Session
	Identity identity.Identity
	Reused   bool
}

// Join validates the table, then reuses the stored session only when the
// server confirms it is still the table's current one. Otherwise it starts
// (or picks up) the table's session. The identity is saved on success.
func Join(ctx context.Context, backend Backend, store *identity.Store, tableID string) (*Result, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return nil, ErrMissingTable
	}

	table, err := backend.GetTable(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("check table: %w", err)
	}

	res := &Result{Table: table}

	stored := store.Current()
	if stored.HasSession() && stored.TableID == tableID {
		active, err := backend.ActiveSession(ctx, tableID)
		switch {
		case err != nil:
			log.Debug().Err(err).Str("table_id", tableID).Msg("active session lookup failed")
		case active != nil && active.SessionID == stored.SessionID:
			res.Session = active
			res.Reused = true
		}
	}

	if res.Session == nil {
		session, err := backend.StartSession(ctx, tableID)
		if err != nil {
			return nil, fmt.Errorf("start session: %w", err)
		}
		res.Session = session
	}

	res.Identity = identity.Identity{SessionID: res.Session.SessionID, TableID: tableID}
	if err := store.Save(res.Identity); err != nil {
		return nil, err
	}

	log.Info().
		Str("table_id", tableID).
		Str("session_id", res.Identity.SessionID).
		Bool("reused", res.Reused).
		Msg("joined table")
	return res, nil
}
