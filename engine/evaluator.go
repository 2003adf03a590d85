package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/mqguard/mqguard/directory"
	"github.com/mqguard/mqguard/topics"
)

// RuleEvaluator decides whether an identity may use a topic in one
// direction. Rules are fetched fresh on every call so edits take effect
// immediately.
type RuleEvaluator struct {
	store directory.RuleStore
}

func NewRuleEvaluator(store directory.RuleStore) *RuleEvaluator {
	return &RuleEvaluator{store: store}
}

// Authorize evaluates the user's blacklist and whitelist for (dir,
// topic). Precedence, first decisive match wins:
//
//  1. blacklist filter exactly equal to topic: deny
//  2. whitelist filter exactly equal to topic: allow
//  3. first blacklist filter pattern-matching topic, stored order: deny
//  4. first whitelist filter pattern-matching topic, stored order: allow
//  5. nothing matched: deny
//
// An exact blacklist entry beats any whitelist pattern, so operators can
// hard-block a literal topic under a broader allow.
func (e *RuleEvaluator) Authorize(ctx context.Context, user *directory.User, dir directory.Direction, topic string) (bool, Reason) {
	blacklist, err := e.store.Rules(ctx, user.ID, dir, directory.Blacklist)
	if err != nil {
		log.Error("fetch blacklist rules error",
			zap.String("username", user.UserName), zap.Error(err))
		return false, ReasonRuleStoreUnavailable
	}
	whitelist, err := e.store.Rules(ctx, user.ID, dir, directory.Whitelist)
	if err != nil {
		log.Error("fetch whitelist rules error",
			zap.String("username", user.UserName), zap.Error(err))
		return false, ReasonRuleStoreUnavailable
	}

	allow, reason := decide(blacklist, whitelist, topic)
	log.Info("topic authorization",
		zap.String("username", user.UserName),
		zap.String("direction", dir.String()),
		zap.String("topic", topic),
		zap.Bool("allowed", allow))
	return allow, reason
}

func decide(blacklist, whitelist []directory.Rule, topic string) (bool, Reason) {
	for _, r := range blacklist {
		if r.Filter == topic {
			return false, ReasonNotAuthorized
		}
	}
	for _, r := range whitelist {
		if r.Filter == topic {
			return true, ReasonAccepted
		}
	}
	for _, r := range blacklist {
		if topics.Matches(r.Filter, topic) {
			return false, ReasonNotAuthorized
		}
	}
	for _, r := range whitelist {
		if topics.Matches(r.Filter, topic) {
			return true, ReasonAccepted
		}
	}
	return false, ReasonNotAuthorized
}
