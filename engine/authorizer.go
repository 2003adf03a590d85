package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mqguard/mqguard/audit"
	"github.com/mqguard/mqguard/credentials"
)

// ConnectRequest carries the fields of a broker connect callback.
type ConnectRequest struct {
	ClientID     string
	Username     string
	Password     string
	Endpoint     string
	CleanSession bool
}

// OnConnect authorizes one connection attempt. Any internal failure
// resolves to a rejection, never to an accept.
func (e *Engine) OnConnect(ctx context.Context, req ConnectRequest) (decision ConnectDecision) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during connect authorization",
				zap.String("clientID", req.ClientID), zap.Any("panic", r))
			e.conns.Release(req.ClientID)
			decision = reject(ReasonInternalError)
		}
	}()

	if strings.TrimSpace(req.Username) == "" {
		decision = reject(ReasonBadCredentials)
		e.logConnect(req, decision)
		return decision
	}

	// Reserving the id up front makes the duplicate check and the later
	// registration atomic per client id.
	if !e.conns.Reserve(req.ClientID) {
		log.Warn("a client with this client id is already connected",
			zap.String("clientID", req.ClientID))
		decision = reject(ReasonDuplicateClientID)
		e.logConnect(req, decision)
		return decision
	}

	decision = e.validateConnect(ctx, req)
	if !decision.Accepted() {
		e.conns.Release(req.ClientID)
	}
	e.logConnect(req, decision)
	return decision
}

func (e *Engine) validateConnect(ctx context.Context, req ConnectRequest) ConnectDecision {
	opCtx, cancel := e.opContext(ctx)
	defer cancel()

	user, err := e.directory.UserByName(opCtx, req.Username)
	if err != nil {
		log.Error("user lookup error",
			zap.String("username", req.Username), zap.Error(err))
		return reject(ReasonDirectoryUnavailable)
	}
	if user == nil {
		return reject(ReasonBadCredentials)
	}

	// The directory may match names loosely (case folding, trimming);
	// the supplied name must equal the stored one byte for byte.
	if user.UserName != req.Username {
		return reject(ReasonBadCredentials)
	}

	if e.verifier.Verify(user.PasswordHash, req.Password) == credentials.Mismatch {
		return reject(ReasonBadCredentials)
	}

	if !user.ValidateClientID {
		if !e.sessions.Bind(req.ClientID, req.ClientID, user) {
			return reject(ReasonClientIDNotValid)
		}
		e.conns.Commit(req.ClientID, req.ClientID)
		return accept()
	}

	if user.ClientIDPrefix == "" {
		// Validation without a configured client id cannot succeed.
		if user.ClientID == "" || req.ClientID != user.ClientID {
			return reject(ReasonClientIDNotValid)
		}
		if !e.sessions.Bind(user.ClientID, req.ClientID, user) {
			return reject(ReasonClientIDNotValid)
		}
		e.conns.Commit(req.ClientID, user.ClientID)
		return accept()
	}

	// Any client id is accepted under a validated prefix group.
	e.sessions.BindShared(user.ClientIDPrefix, req.ClientID, user)
	e.conns.Commit(req.ClientID, user.ClientIDPrefix)
	return accept()
}

// OnDisconnect releases the client's connection slot and its session
// binding. Idempotent; safe to call for clients that never connected.
func (e *Engine) OnDisconnect(clientID string) {
	key, ok := e.conns.Remove(clientID)
	if !ok {
		return
	}
	if key != "" {
		e.sessions.Unbind(key, clientID)
	}
	e.submit(&audit.Event{
		ClientID: clientID,
		Action:   audit.Disconnect,
		Allowed:  true,
	})
}

func (e *Engine) logConnect(req ConnectRequest, decision ConnectDecision) {
	if decision.Accepted() {
		log.Info("new connection",
			zap.String("clientID", req.ClientID),
			zap.String("endpoint", req.Endpoint),
			zap.String("username", req.Username),
			zap.Bool("cleanSession", req.CleanSession))
	} else {
		log.Info("connection rejected",
			zap.String("clientID", req.ClientID),
			zap.String("endpoint", req.Endpoint),
			zap.String("username", req.Username),
			zap.String("reason", decision.Reason.String()))
	}
	e.submit(&audit.Event{
		ClientID: req.ClientID,
		Username: req.Username,
		Action:   audit.Connect,
		Allowed:  decision.Accepted(),
		Reason:   decision.Reason.String(),
		Endpoint: req.Endpoint,
	})
}
