package session

import "strings"

// summaryMaxLen caps summarized text injected into prompts.
const summaryMaxLen = 200

// Summarize shortens long free text for prompt injection: the first two
// sentences, capped at max characters with an ellipsis.
func Summarize(content string, max int) string {
	if max <= 0 {
		max = summaryMaxLen
	}
	if len(content) <= max {
		return content
	}

	var sentences []string
	for _, s := range strings.Split(content, ".") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}
	summary := strings.TrimSpace(strings.Join(sentences, ". "))
	if len(summary) > max {
		return summary[:max-3] + "..."
	}
	return summary
}

// ProcessForPrompt reduces the session's blocks to a bounded shape for
// prompt injection: long text summarized, lists capped so one oversized
// block cannot crowd out the rest of the context window.
func (c *Context) ProcessForPrompt() map[string]any {
	if c == nil || len(c.Blocks) == 0 {
		return map[string]any{}
	}

	processed := make(map[string]any)

	if bp, ok := c.Blocks[BlockBlueprint]; ok && bp != nil {
		m := asMap(bp)
		processed[string(BlockBlueprint)] = map[string]any{
			"theme":     m["theme"],
			"core_idea": Summarize(asString(m["core_idea"]), summaryMaxLen),
			"tone":      m["tone"],
			"pacing":    m["pacing"],
			"setting":   m["setting"],
			"hooks":     capList(asList(m["hooks"]), 5),
		}
	}

	if hooks, ok := c.Blocks[BlockPlayerHooks]; ok && hooks != nil {
		capped := capList(asList(hooks), 3)
		out := make([]map[string]any, 0, len(capped))
		for _, h := range capped {
			m := asMap(h)
			out = append(out, map[string]any{
				"name":       m["name"],
				"class":      m["class"],
				"motivation": Summarize(asString(m["motivation"]), summaryMaxLen),
				"ties":       capList(asList(m["ties"]), 2),
			})
		}
		processed[string(BlockPlayerHooks)] = out
	}

	if seeds, ok := c.Blocks[BlockWorldSeeds]; ok && seeds != nil {
		m := asMap(seeds)
		processed[string(BlockWorldSeeds)] = map[string]any{
			"factions":    capList(asList(m["factions"]), 3),
			"locations":   capList(asList(m["locations"]), 3),
			"constraints": capList(asList(m["constraints"]), 5),
		}
	}

	if prefs, ok := c.Blocks[BlockStylePrefs]; ok && prefs != nil {
		m := asMap(prefs)
		processed[string(BlockStylePrefs)] = map[string]any{
			"language":     m["language"],
			"tone":         m["tone"],
			"pacing_hints": capList(asList(m["pacing_hints"]), 3),
			doNotsKey:      capList(asList(m[doNotsKey]), 5),
		}
	}

	if bg, ok := c.Blocks[BlockBackground]; ok && bg != nil {
		m := asMap(bg)
		out := map[string]any{"premise": m["premise"]}
		for _, field := range []string{
			"tone_rules", "stakes", "mysteries", "factions", "location_palette",
			"npc_roster_skeleton", "motifs", doNotsKey, "playstyle_implications",
		} {
			out[field] = capList(asList(m[field]), 5)
		}
		processed[string(BlockBackground)] = out
	}

	if concept, ok := c.Blocks[BlockStoryConcept]; ok && concept != nil {
		m := asMap(concept)
		processed[string(BlockStoryConcept)] = map[string]any{
			"concept":   m["concept"],
			"meta":      m["meta"],
			"timestamp": m["timestamp"],
		}
	}

	if cb, err := c.CharactersBlock(); err == nil && cb != nil {
		list := cb.List
		if len(list) > 5 {
			list = list[:5]
		}
		processed[string(BlockCharacters)] = map[string]any{
			"list":    list,
			"locked":  cb.Locked,
			"version": cb.Version,
		}
	}

	return processed
}

// BackgroundMap returns the raw background block, or nil when absent.
func (c *Context) BackgroundMap() map[string]any {
	bg, ok := c.Blocks[BlockBackground]
	if !ok || bg == nil {
		return nil
	}
	m := asMap(bg)
	if len(m) == 0 {
		return nil
	}
	return m
}

// NumberOfPlayers reads the player count from the background block,
// defaulting to 4.
func (c *Context) NumberOfPlayers() int {
	if m := c.BackgroundMap(); m != nil {
		if n, ok := m["number_of_players"].(float64); ok && n > 0 {
			return int(n)
		}
		if n, ok := m["number_of_players"].(int); ok && n > 0 {
			return n
		}
	}
	return 4
}

func capList(l []any, n int) []any {
	if len(l) > n {
		return l[:n]
	}
	return l
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
