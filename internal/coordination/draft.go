package coordination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"slotconsole/internal/repo"
)

type draftState struct {
	Waivers   []string          `json:"waivers,omitempty"`
	Orderings Orderings         `json:"orderings,omitempty"`
	Bids      map[string]string `json:"bids,omitempty"`
}

// Persist stores the current input so a later invocation can continue it.
func (c *Controller) Persist(ctx context.Context) error {
	if c.drafts == nil {
		return nil
	}
	c.mu.Lock()
	if c.group == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	st := draftState{Waivers: c.waiverList(), Orderings: c.orderings.clone(), Bids: map[string]string{}}
	for k, v := range c.bids {
		st.Bids[k] = v
	}
	identity := c.identity
	c.mu.Unlock()

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	return c.drafts.SaveDraft(ctx, repo.Draft{Kind: string(c.kind), GroupID: c.id, Identity: identity, Payload: data})
}

// restoreDraft applies a stored draft entered against the same identity.
// A draft for another identity is stale and deleted.
func (c *Controller) restoreDraft(ctx context.Context) {
	if c.drafts == nil {
		return
	}
	d, err := c.drafts.GetDraft(ctx, string(c.kind), c.id)
	if errors.Is(err, repo.ErrNotFound) {
		return
	}
	if err != nil {
		c.log.WithError(err).Warn("read draft failed")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.Identity != c.identity {
		c.log.WithField("draft_identity", d.Identity).Info("discarding stale draft")
		if err := c.drafts.DeleteDraft(ctx, string(c.kind), c.id); err != nil {
			c.log.WithError(err).Warn("delete draft failed")
		}
		return
	}
	var st draftState
	if err := json.Unmarshal(d.Payload, &st); err != nil {
		c.log.WithError(err).Warn("decode draft failed")
		return
	}
	for _, id := range st.Waivers {
		if participates(*c.group, id) {
			c.waivers[id] = true
		}
	}
	for evu, ids := range st.Orderings {
		if cur, ok := c.orderings[evu]; ok && samePermutation(cur, ids) {
			c.orderings[evu] = append([]string(nil), ids...)
		}
	}
	candidates := map[string]bool{}
	for _, a := range BidCandidates(*c.group) {
		candidates[a.ID] = true
	}
	for id, bid := range st.Bids {
		if candidates[id] {
			if v, err := parseBid(bid); err == nil && v != "" {
				c.bids[id] = v
			}
		}
	}
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	count := map[string]int{}
	for _, id := range a {
		count[id]++
	}
	for _, id := range b {
		count[id]--
		if count[id] < 0 {
			return false
		}
	}
	return true
}
