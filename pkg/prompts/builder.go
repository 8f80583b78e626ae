package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/storyforge/storyforge/pkg/chat"
	"github.com/storyforge/storyforge/pkg/session"
)

// contextMessage renders the session's prompt-ready blocks as a system
// message. Processing caps list sizes so the context stays bounded.
func contextMessage(sc *session.Context) (chat.ChatMessage, error) {
	data, err := json.MarshalIndent(sc.ProcessForPrompt(), "", "  ")
	if err != nil {
		return chat.ChatMessage{}, fmt.Errorf("failed to marshal session context: %w", err)
	}
	return chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: fmt.Sprintf("Campaign context:\n```json\n%s\n```", string(data)),
	}, nil
}

// BackgroundMessages builds the message sequence for background generation.
func BackgroundMessages(sc *session.Context) ([]chat.ChatMessage, error) {
	ctxMsg, err := contextMessage(sc)
	if err != nil {
		return nil, err
	}
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: BackgroundSystemPrompt},
		ctxMsg,
		{Role: chat.ChatRoleUser, Content: fmt.Sprintf("Generate the story background for a party of %d players.", sc.NumberOfPlayers())},
	}, nil
}

// ChainMessages builds the message sequence for macro chain generation.
// The approach and pacing vary across generations so repeated chains for
// the same context do not converge on one structure.
func ChainMessages(sc *session.Context, numScenes int, approach, pacing string, seed int) ([]chat.ChatMessage, error) {
	ctxMsg, err := contextMessage(sc)
	if err != nil {
		return nil, err
	}
	user := fmt.Sprintf(
		"Generate a macro chain of exactly %d scenes. Structure the arc %s with %s pacing. Variation seed: %d.",
		numScenes, approach, pacing, seed)
	if recent := sc.RecentChainApproaches(); len(recent) > 0 {
		user += fmt.Sprintf(" Avoid repeating these recently used structures: %v.", recent)
	}
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: ChainSystemPrompt},
		ctxMsg,
		{Role: chat.ChatRoleUser, Content: user},
	}, nil
}

// NextSceneMessages builds the message sequence for extending a chain by
// one scene.
func NextSceneMessages(sc *session.Context, chain *session.MacroChain) ([]chat.ChatMessage, error) {
	ctxMsg, err := contextMessage(sc)
	if err != nil {
		return nil, err
	}
	chainData, err := json.MarshalIndent(chain, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal macro chain: %w", err)
	}
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: NextSceneSystemPrompt},
		ctxMsg,
		{Role: chat.ChatRoleSystem, Content: fmt.Sprintf("Existing macro chain:\n```json\n%s\n```", string(chainData))},
		{Role: chat.ChatRoleUser, Content: "Generate the next scene in this chain."},
	}, nil
}

// SceneDetailMessages builds the message sequence for expanding one macro
// scene into a playable detail. The effective context carries consequences
// accumulated from locked earlier scenes.
func SceneDetailMessages(sc *session.Context, scene session.MacroScene, effective session.ContextOut, approach string, seed int) ([]chat.ChatMessage, error) {
	ctxMsg, err := contextMessage(sc)
	if err != nil {
		return nil, err
	}
	sceneData, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scene: %w", err)
	}
	effData, err := json.MarshalIndent(effective, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal effective context: %w", err)
	}
	user := fmt.Sprintf("Expand this scene into a playable detail. Lead with a %s presentation. Variation seed: %d.", approach, seed)
	if recent := sc.RecentSceneApproaches(); len(recent) > 0 {
		user += fmt.Sprintf(" Avoid repeating these recently used presentations: %v.", recent)
	}
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: SceneDetailSystemPrompt},
		ctxMsg,
		{Role: chat.ChatRoleSystem, Content: fmt.Sprintf("Scene to expand:\n```json\n%s\n```\n\nAccumulated story state from earlier scenes:\n```json\n%s\n```", string(sceneData), string(effData))},
		{Role: chat.ChatRoleUser, Content: user},
	}, nil
}

// CharacterMessages builds the message sequence for roster generation.
func CharacterMessages(sc *session.Context, count int) ([]chat.ChatMessage, error) {
	ctxMsg, err := contextMessage(sc)
	if err != nil {
		return nil, err
	}
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: CharactersSystemPrompt},
		ctxMsg,
		{Role: chat.ChatRoleUser, Content: fmt.Sprintf("Generate exactly %d playable characters for this campaign.", count)},
	}, nil
}

// RegenerateFieldMessages builds the message sequence for rewriting a
// single field of one character.
func RegenerateFieldMessages(sc *session.Context, ch session.Character, field string) ([]chat.ChatMessage, error) {
	ctxMsg, err := contextMessage(sc)
	if err != nil {
		return nil, err
	}
	chData, err := json.MarshalIndent(ch, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal character: %w", err)
	}
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: RegenerateFieldSystemPrompt},
		ctxMsg,
		{Role: chat.ChatRoleSystem, Content: fmt.Sprintf("Character:\n```json\n%s\n```", string(chData))},
		{Role: chat.ChatRoleUser, Content: fmt.Sprintf("Rewrite the %q field of this character.", field)},
	}, nil
}
