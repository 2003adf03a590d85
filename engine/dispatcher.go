package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mqguard/mqguard/audit"
	"github.com/mqguard/mqguard/directory"
)

// OnSubscribe authorizes a subscription to topicFilter. Unresolvable
// sessions and any internal failure deny.
func (e *Engine) OnSubscribe(ctx context.Context, clientID, topicFilter string) (allowed bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during subscribe authorization",
				zap.String("clientID", clientID), zap.Any("panic", r))
			allowed = false
		}
	}()

	opCtx, cancel := e.opContext(ctx)
	defer cancel()

	user := e.resolveUser(opCtx, clientID)
	if user == nil {
		log.Info("subscription denied, no session identity",
			zap.String("clientID", clientID), zap.String("topicFilter", topicFilter))
		e.submit(&audit.Event{
			ClientID: clientID,
			Topic:    topicFilter,
			Action:   audit.Subscribe,
			Allowed:  false,
			Reason:   ReasonUnknownSession.String(),
		})
		return false
	}

	allow, reason := e.evaluator.Authorize(opCtx, user, directory.Subscribe, topicFilter)
	e.submit(&audit.Event{
		ClientID: clientID,
		Username: user.UserName,
		Topic:    topicFilter,
		Action:   audit.Subscribe,
		Allowed:  allow,
		Reason:   reason.String(),
	})
	return allow
}

// OnPublish authorizes a publish of payloadSize bytes to topic. Quota
// throttling runs before rule evaluation.
func (e *Engine) OnPublish(ctx context.Context, clientID, topic string, payloadSize int64) (allowed bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during publish authorization",
				zap.String("clientID", clientID), zap.Any("panic", r))
			allowed = false
		}
	}()

	opCtx, cancel := e.opContext(ctx)
	defer cancel()

	user := e.resolveUser(opCtx, clientID)
	if user == nil {
		e.submit(&audit.Event{
			ClientID: clientID,
			Topic:    topic,
			Action:   audit.Publish,
			Allowed:  false,
			Reason:   ReasonUnknownSession.String(),
		})
		return false
	}

	if user.ThrottleUser && user.MonthlyByteLimit != nil {
		if e.quota.RecordAndCheck(clientID, payloadSize, *user.MonthlyByteLimit) {
			e.submit(&audit.Event{
				ClientID: clientID,
				Username: user.UserName,
				Topic:    topic,
				Action:   audit.Publish,
				Allowed:  false,
				Reason:   ReasonQuotaExceeded.String(),
				Size:     payloadSize,
			})
			return false
		}
	}

	allow, reason := e.evaluator.Authorize(opCtx, user, directory.Publish, topic)
	e.submit(&audit.Event{
		ClientID: clientID,
		Username: user.UserName,
		Topic:    topic,
		Action:   audit.Publish,
		Allowed:  allow,
		Reason:   reason.String(),
		Size:     payloadSize,
	})
	return allow
}

// resolveUser finds the identity bound for clientID: the exact binding
// key first, then the prefix binding when some configured prefix matches
// the raw client id. Prefixes are scanned globally across all users.
func (e *Engine) resolveUser(ctx context.Context, clientID string) *directory.User {
	prefixes, err := e.directory.ClientIDPrefixes(ctx)
	if err != nil {
		log.Error("client id prefix lookup error", zap.Error(err))
		return nil
	}
	prefix := ""
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(clientID, p) {
			prefix = p
			break
		}
	}
	user, ok := e.sessions.Resolve(clientID, prefix)
	if !ok {
		return nil
	}
	return user
}
