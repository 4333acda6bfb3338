package reminder

import (
	"fmt"
	"math/rand"
	"sync"
)

type MessageKind string

const (
	KindText    MessageKind = "text"
	KindSticker MessageKind = "sticker"
)

// StickerRef is an opaque attachment reference understood by the push
// transport. The IDs here are LINE sticker package/sticker pairs.
type StickerRef struct {
	PackageID string
	StickerID string
}

// Message is one outbound unit on the push or reply channel.
type Message struct {
	Kind    MessageKind
	Body    string
	Sticker StickerRef
}

func Text(body string) Message {
	return Message{Kind: KindText, Body: body}
}

func Sticker(ref StickerRef) Message {
	return Message{Kind: KindSticker, Sticker: ref}
}

// BombardmentSticker decorates every overdue push.
var BombardmentSticker = StickerRef{PackageID: "446", StickerID: "1988"}

var tierTemplates = map[Tier][]string{
	TierNormal: {
		"⏰ 「%s」の締切が近づいているぞ！今のうちに片付けろ！",
		"📌 「%s」、忘れてないか？コツコツやるんだ！",
		"🔔 リマインド：「%s」はまだ未完了だ。",
	},
	TierNear: {
		"🚨 「%s」の締切まであと少しだ！急げ！",
		"⏳ もうすぐ締切だぞ！「%s」を今すぐやれ！",
		"🔥 ラストスパートだ！「%s」を仕上げろ！",
	},
	TierOverdue: {
		"💣 「%s」の締切が過ぎてるぞ！！即対応しろ！",
		"📛 「%s」、もう手遅れ寸前だ！今が本気出すタイミングだ！",
		"💥 サボりは許さない！「%s」爆撃モード発動！",
	},
}

// Templates returns the fixed phrase set for a tier. The returned slice
// must not be mutated.
func Templates(tier Tier) []string {
	return tierTemplates[tier]
}

// Selector picks reminder phrasings pseudo-randomly to vary tone. The
// random source is injected so tests can seed it.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Pick builds the outbound messages for a tier, substituting the task
// description into a uniformly chosen template. OVERDUE messages carry the
// bombardment sticker. Undated tasks yield nothing.
func (s *Selector) Pick(tier Tier, description string) []Message {
	templates := tierTemplates[tier]
	if len(templates) == 0 {
		return nil
	}
	s.mu.Lock()
	body := fmt.Sprintf(templates[s.rng.Intn(len(templates))], description)
	s.mu.Unlock()

	msgs := []Message{Text(body)}
	if tier == TierOverdue {
		msgs = append(msgs, Sticker(BombardmentSticker))
	}
	return msgs
}
