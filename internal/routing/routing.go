// Package routing decides which languages and recipients each utterance
// reaches, and filters incoming messages against the local participant.
package routing

import (
	"sort"

	"github.com/tourlingo/relay/domain/entities"
	"github.com/tourlingo/relay/internal/wire"
)

// Targets is the routing decision for one utterance. An empty
// RecipientIdentities means broadcast to the whole room.
type Targets struct {
	Languages           []string
	RecipientIdentities []string
}

// ResolveTargets maps a target channel to the languages that need
// translation and the identities the transport should restrict delivery
// to.
//
//   - "all": every participant's language, broadcast.
//   - "guide": the guide's language, delivered to the guide only.
//   - anything else is a participant identity: that participant's language
//     plus the guide's, delivered to both so the guide can follow private
//     questions.
func ResolveTargets(channel string, sender entities.Participant, participants []entities.Participant) Targets {
	languages := map[string]struct{}{}
	identities := map[string]struct{}{}

	guide, hasGuide := findGuide(participants)

	switch channel {
	case wire.ChannelAll:
		languages[sender.Language] = struct{}{}
		for _, p := range participants {
			languages[p.Language] = struct{}{}
		}
		// No recipient restriction: the whole room listens.
	case wire.ChannelGuide:
		if hasGuide {
			languages[guide.Language] = struct{}{}
			identities[guide.Identity] = struct{}{}
		}
	default:
		for _, p := range participants {
			if p.Identity == channel {
				languages[p.Language] = struct{}{}
				identities[p.Identity] = struct{}{}
				break
			}
		}
		if hasGuide {
			languages[guide.Language] = struct{}{}
			identities[guide.Identity] = struct{}{}
		}
	}

	return Targets{
		Languages:           sortedKeys(languages),
		RecipientIdentities: sortedKeys(identities),
	}
}

// Accept reports whether the local participant should act on an incoming
// message. The transport already restricted delivery, but routing is
// re-checked here so privacy does not depend on the transport alone.
func Accept(local entities.Participant, msg *wire.TranslatedAudioMessage) bool {
	if msg.Language != local.Language {
		return false
	}
	switch msg.TargetChannel {
	case wire.ChannelAll:
		return true
	case wire.ChannelGuide:
		return local.IsGuide()
	default:
		return msg.TargetChannel == local.Identity
	}
}

func findGuide(participants []entities.Participant) (entities.Participant, bool) {
	for _, p := range participants {
		if p.IsGuide() {
			return p, true
		}
	}
	return entities.Participant{}, false
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
