package admin

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hydrospark/hydrodash/internal/shared"
)

// OutcomeTTL bounds how long a settled outcome waits for the next panel render.
const OutcomeTTL = time.Hour

// Tracker records which actions a session has in flight, so a second tab
// renders the trigger disabled and a duplicate submit is refused. It also
// holds settled outcomes under their own keys, outside the session, so a
// long action never writes back a stale session snapshot.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTracker constructs a Tracker. ttl bounds how long a crashed request can
// keep an action marked as running. A nil client tracks nothing.
func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Tracker{client: client, ttl: ttl}
}

// Begin marks action as in flight. It reports false when it already was.
func (t *Tracker) Begin(ctx context.Context, sessionID string, action Action) (bool, error) {
	if t == nil || t.client == nil {
		return true, nil
	}
	return t.client.SetNX(ctx, shared.ActionLockKey(sessionID, string(action)), time.Now().UTC().Format(time.RFC3339), t.ttl).Result()
}

// End clears the in-flight mark.
func (t *Tracker) End(ctx context.Context, sessionID string, action Action) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Del(ctx, shared.ActionLockKey(sessionID, string(action))).Err()
}

// Settle stores outcome for the next panel render of sessionID.
func (t *Tracker) Settle(ctx context.Context, sessionID string, outcome Outcome) error {
	if t == nil || t.client == nil {
		return nil
	}
	encoded, err := EncodeOutcome(outcome)
	if err != nil {
		return err
	}
	return t.client.Set(ctx, shared.ActionOutcomeKey(sessionID, string(outcome.Action)), encoded, OutcomeTTL).Err()
}

// TakeOutcome returns and clears the settled outcome of action, if any.
func (t *Tracker) TakeOutcome(ctx context.Context, sessionID string, action Action) (Outcome, bool, error) {
	if t == nil || t.client == nil {
		return Outcome{}, false, nil
	}
	raw, err := t.client.GetDel(ctx, shared.ActionOutcomeKey(sessionID, string(action))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Outcome{}, false, nil
		}
		return Outcome{}, false, err
	}
	outcome, ok := DecodeOutcome(raw)
	return outcome, ok, nil
}

// States returns the panel state of every action for sessionID. Actions not
// in flight are idle; settled results come from TakeOutcome.
func (t *Tracker) States(ctx context.Context, sessionID string) map[Action]State {
	states := make(map[Action]State, len(Actions))
	for _, a := range Actions {
		states[a] = StateIdle
	}
	if t == nil || t.client == nil {
		return states
	}
	pipe := t.client.Pipeline()
	checks := make(map[Action]*redis.IntCmd, len(Actions))
	for _, a := range Actions {
		checks[a] = pipe.Exists(ctx, shared.ActionLockKey(sessionID, string(a)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return states
	}
	for a, cmd := range checks {
		if cmd.Val() > 0 {
			states[a] = StateInFlight
		}
	}
	return states
}
