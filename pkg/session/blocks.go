package session

// BlockType names a context block within a session. Block data is schemaless
// JSON; the type determines which merge policy applies on append.
type BlockType string

const (
	BlockBlueprint    BlockType = "blueprint"
	BlockPlayerHooks  BlockType = "player_hooks"
	BlockWorldSeeds   BlockType = "world_seeds"
	BlockStylePrefs   BlockType = "style_prefs"
	BlockCustom       BlockType = "custom"
	BlockStoryFacts   BlockType = "story_facts"
	BlockBackground   BlockType = "background"
	BlockStoryConcept BlockType = "story_concept"
	BlockCharacters   BlockType = "characters"
	BlockSheets       BlockType = "srd2014_characters"
)

// customChainKey is the key under which the macro chain is mirrored inside
// the custom block. The custom merge policy deep-merges this sub-object.
const customChainKey = "macro_chain"

// doNotsKey is the additive sub-list inside style_prefs.
const doNotsKey = "do_nots"

// BlockTypes lists the block types accepted by context append.
var BlockTypes = []BlockType{
	BlockBlueprint,
	BlockPlayerHooks,
	BlockWorldSeeds,
	BlockStylePrefs,
	BlockCustom,
	BlockStoryFacts,
	BlockBackground,
	BlockStoryConcept,
	BlockCharacters,
}

// Valid reports whether bt is a block type accepted by context append.
func (bt BlockType) Valid() bool {
	for _, t := range BlockTypes {
		if t == bt {
			return true
		}
	}
	return false
}

// Lockable reports whether bt can be locked. Story facts accumulate from
// scene details and are never locked directly.
func (bt BlockType) Lockable() bool {
	return bt.Valid() && bt != BlockStoryFacts
}

// MergeBlock merges incoming data into the existing block value according to
// the per-type merge policy:
//
//   - blueprint, background, story_concept, characters: full replace
//   - player_hooks, story_facts: list append
//   - world_seeds: per-field list concatenation
//   - style_prefs: shallow merge with additive do_nots
//   - custom: shallow merge with nested merge of the embedded macro chain
//
// Unknown types fall through to replace.
func MergeBlock(bt BlockType, existing, incoming any) any {
	switch bt {
	case BlockPlayerHooks, BlockStoryFacts:
		return appendList(existing, incoming)
	case BlockWorldSeeds:
		return mergeWorldSeeds(existing, incoming)
	case BlockStylePrefs:
		return mergeStylePrefs(existing, incoming)
	case BlockCustom:
		return mergeCustom(existing, incoming)
	default:
		return incoming
	}
}

// appendList appends incoming to the existing list. A non-list incoming
// value is appended as a single element.
func appendList(existing, incoming any) []any {
	out := append([]any{}, asList(existing)...)
	if l, ok := incoming.([]any); ok {
		return append(out, l...)
	}
	return append(out, incoming)
}

func mergeWorldSeeds(existing, incoming any) map[string]any {
	e := asMap(existing)
	n := asMap(incoming)
	merged := map[string]any{}
	for _, field := range []string{"factions", "locations", "constraints"} {
		merged[field] = append(asList(e[field]), asList(n[field])...)
	}
	return merged
}

func mergeStylePrefs(existing, incoming any) map[string]any {
	e := asMap(existing)
	merged := make(map[string]any, len(e))
	for k, v := range e {
		merged[k] = v
	}
	for k, v := range asMap(incoming) {
		merged[k] = v
	}
	merged[doNotsKey] = append(asList(e[doNotsKey]), asList(asMap(incoming)[doNotsKey])...)
	return merged
}

func mergeCustom(existing, incoming any) map[string]any {
	e := asMap(existing)
	n := asMap(incoming)
	merged := make(map[string]any, len(e)+len(n))
	for k, v := range e {
		merged[k] = v
	}
	for k, v := range n {
		merged[k] = v
	}

	// Preserve existing chain fields that the incoming mirror does not set.
	if newChain, ok := n[customChainKey].(map[string]any); ok {
		if oldChain, ok := e[customChainKey].(map[string]any); ok {
			nested := make(map[string]any, len(oldChain)+len(newChain))
			for k, v := range oldChain {
				nested[k] = v
			}
			for k, v := range newChain {
				nested[k] = v
			}
			merged[customChainKey] = nested
		}
	}
	return merged
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}
