package session

import (
	"math/rand"
	"time"
)

// maxApproachHistory bounds the per-session record of recent generation
// approaches.
const maxApproachHistory = 10

// ApproachRecord is one remembered generation approach.
type ApproachRecord struct {
	Approach  string    `json:"approach"`
	Style     string    `json:"style,omitempty"`
	Pacing    string    `json:"pacing,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CreativityHistory tracks recent generation approaches so prompts can
// steer the LLM away from repeating itself.
type CreativityHistory struct {
	MacroChainApproaches  []ApproachRecord `json:"macro_chain_approaches"`
	SceneDetailApproaches []ApproachRecord `json:"scene_detail_approaches"`
	LastUpdated           time.Time        `json:"last_updated"`
}

func (c *Context) creativity() *CreativityHistory {
	if c.Creativity == nil {
		c.Creativity = &CreativityHistory{}
	}
	return c.Creativity
}

// RecordChainApproach remembers a macro chain generation approach.
func (c *Context) RecordChainApproach(approach, style, pacing string) {
	h := c.creativity()
	h.MacroChainApproaches = pushApproach(h.MacroChainApproaches, ApproachRecord{
		Approach:  approach,
		Style:     style,
		Pacing:    pacing,
		Timestamp: time.Now().UTC(),
	})
	h.LastUpdated = time.Now().UTC()
}

// RecordSceneApproach remembers a scene detail generation approach.
func (c *Context) RecordSceneApproach(approach, style string) {
	h := c.creativity()
	h.SceneDetailApproaches = pushApproach(h.SceneDetailApproaches, ApproachRecord{
		Approach:  approach,
		Style:     style,
		Timestamp: time.Now().UTC(),
	})
	h.LastUpdated = time.Now().UTC()
}

// RecentChainApproaches returns the remembered macro chain approach names,
// newest first.
func (c *Context) RecentChainApproaches() []string {
	if c.Creativity == nil {
		return nil
	}
	return approachNames(c.Creativity.MacroChainApproaches)
}

// RecentSceneApproaches returns the remembered scene detail approach names,
// newest first.
func (c *Context) RecentSceneApproaches() []string {
	if c.Creativity == nil {
		return nil
	}
	return approachNames(c.Creativity.SceneDetailApproaches)
}

// SelectApproach picks an approach, avoiding recently used ones when there
// are more candidates than the history window. When every candidate was
// used recently, selection resets to uniform.
func SelectApproach(approaches, recent []string) string {
	if len(approaches) == 0 {
		return ""
	}
	if len(approaches) <= maxApproachHistory {
		return approaches[rand.Intn(len(approaches))]
	}

	used := make(map[string]bool, len(recent))
	for _, a := range recent {
		used[a] = true
	}
	var available []string
	for _, a := range approaches {
		if !used[a] {
			available = append(available, a)
		}
	}
	if len(available) == 0 {
		return approaches[rand.Intn(len(approaches))]
	}
	return available[rand.Intn(len(available))]
}

// VariationSeed derives a small per-generation seed from the clock, the
// session id and the history length, so prompt variation differs across
// sessions generating at the same moment.
func (c *Context) VariationSeed() int {
	sessionFactor := 0
	for _, r := range c.SessionID {
		sessionFactor += int(r)
	}
	historyFactor := 0
	if c.Creativity != nil {
		historyFactor = (len(c.Creativity.MacroChainApproaches) + len(c.Creativity.SceneDetailApproaches)) * 17
	}
	seed := int(time.Now().UnixMilli()) + sessionFactor + historyFactor
	return ((seed % 1000) + 1000) % 1000
}

func pushApproach(records []ApproachRecord, r ApproachRecord) []ApproachRecord {
	records = append([]ApproachRecord{r}, records...)
	if len(records) > maxApproachHistory {
		records = records[:maxApproachHistory]
	}
	return records
}

func approachNames(records []ApproachRecord) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Approach)
	}
	return names
}
