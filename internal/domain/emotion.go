package domain

const (
	// MaxEmotions caps how many catalog emotions may be selected at once.
	MaxEmotions = 3

	// MaxCustomEmotionLength caps the custom emotion label, counted in runes.
	MaxCustomEmotionLength = 10
)

// Emotion is one entry of the fixed emotion catalog.
type Emotion struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

var emotionCatalog = []Emotion{
	{Name: "生气", Emoji: "😤"},
	{Name: "愤怒", Emoji: "😠"},
	{Name: "不安", Emoji: "😟"},
	{Name: "焦虑", Emoji: "😰"},
	{Name: "恐惧", Emoji: "😨"},
	{Name: "难过", Emoji: "😢"},
	{Name: "委屈", Emoji: "😭"},
	{Name: "失落", Emoji: "😔"},
	{Name: "羞愧", Emoji: "😳"},
	{Name: "嫉妒", Emoji: "😒"},
	{Name: "孤独", Emoji: "😶"},
	{Name: "无助", Emoji: "😞"},
	{Name: "烦躁", Emoji: "😣"},
}

var needCatalog = []string{
	"被尊重",
	"被看见",
	"被理解",
	"安全感",
	"确定性",
	"公平对待",
	"自主权",
	"归属感",
}

var emotionIndex = func() map[string]struct{} {
	idx := make(map[string]struct{}, len(emotionCatalog))
	for _, e := range emotionCatalog {
		idx[e.Name] = struct{}{}
	}
	return idx
}()

// EmotionCatalog returns a copy of the selectable emotions in display order.
func EmotionCatalog() []Emotion {
	out := make([]Emotion, len(emotionCatalog))
	copy(out, emotionCatalog)
	return out
}

// NeedCatalog returns a copy of the suggested needs. A need may also be free text.
func NeedCatalog() []string {
	out := make([]string, len(needCatalog))
	copy(out, needCatalog)
	return out
}

// IsCatalogEmotion reports whether name is a selectable catalog emotion.
func IsCatalogEmotion(name string) bool {
	_, ok := emotionIndex[name]
	return ok
}
