package game

import (
	"sort"
	"strings"
	"sync"
)

const DefaultCategory = "general"

var builtinWords = map[string][]string{
	"general": {
		"apple", "bridge", "candle", "castle", "cloud", "dragon", "guitar", "hammer",
		"island", "kite", "lighthouse", "mountain", "octopus", "pencil", "pirate",
		"rainbow", "robot", "rocket", "snowman", "sunflower", "tornado", "umbrella",
		"volcano", "waterfall", "windmill",
	},
	"animals": {
		"camel", "crocodile", "dolphin", "elephant", "flamingo", "giraffe", "hedgehog",
		"kangaroo", "koala", "lobster", "ostrich", "panda", "peacock", "penguin",
		"rabbit", "snail", "squirrel", "turtle", "walrus", "zebra",
	},
	"food": {
		"avocado", "banana", "burger", "cupcake", "donut", "hot dog", "ice cream",
		"lemon", "noodles", "pancake", "pineapple", "pizza", "popcorn", "pretzel",
		"sandwich", "sushi", "taco", "waffle", "watermelon", "cheese",
	},
	"objects": {
		"alarm clock", "backpack", "bicycle", "camera", "chair", "glasses", "headphones",
		"key", "ladder", "lamp", "microscope", "mirror", "paintbrush", "scissors",
		"skateboard", "telescope", "toothbrush", "trumpet", "wallet", "zipper",
	},
}

// WordBank holds candidate words per category. Picking is a pure function of
// the supplied random source; the bank itself only guards its lists.
type WordBank struct {
	mu         sync.RWMutex
	categories map[string][]string
}

func NewWordBank(categories map[string][]string) *WordBank {
	bank := &WordBank{categories: make(map[string][]string)}
	for category, words := range categories {
		bank.Add(category, words...)
	}
	return bank
}

func DefaultWordBank() *WordBank {
	return NewWordBank(builtinWords)
}

// Add appends words to a category, skipping blanks and duplicates.
func (b *WordBank) Add(category string, words ...string) int {
	category = normalizeCategory(category)
	b.mu.Lock()
	defer b.mu.Unlock()
	existing := b.categories[category]
	seen := make(map[string]struct{}, len(existing)+len(words))
	for _, word := range existing {
		seen[strings.ToLower(word)] = struct{}{}
	}
	added := 0
	for _, word := range words {
		word = strings.Join(strings.Fields(word), " ")
		if word == "" {
			continue
		}
		key := strings.ToLower(word)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		existing = append(existing, word)
		added++
	}
	b.categories[category] = existing
	return added
}

func (b *WordBank) Categories() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.categories))
	for name, words := range b.categories {
		if len(words) == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *WordBank) HasCategory(category string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.categories[normalizeCategory(category)]) > 0
}

// Pick returns up to n distinct words from category, preferring words not in
// exclude. Unknown categories fall back to every word in the bank. When the
// category runs out of unused words the used ones are considered again.
func (b *WordBank) Pick(category string, n int, exclude []string, intn func(int) int) []string {
	if n <= 0 {
		return nil
	}
	pool := b.pool(category)
	if len(pool) == 0 {
		return nil
	}
	used := make(map[string]struct{}, len(exclude))
	for _, word := range exclude {
		used[strings.ToLower(word)] = struct{}{}
	}
	fresh := make([]string, 0, len(pool))
	stale := make([]string, 0, len(exclude))
	for _, word := range pool {
		if _, ok := used[strings.ToLower(word)]; ok {
			stale = append(stale, word)
			continue
		}
		fresh = append(fresh, word)
	}
	picked := sample(fresh, n, intn)
	if len(picked) < n {
		picked = append(picked, sample(stale, n-len(picked), intn)...)
	}
	return picked
}

func (b *WordBank) pool(category string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if words := b.categories[normalizeCategory(category)]; len(words) > 0 {
		return append([]string(nil), words...)
	}
	names := make([]string, 0, len(b.categories))
	for name := range b.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	var all []string
	for _, name := range names {
		all = append(all, b.categories[name]...)
	}
	return all
}

// sample is a partial Fisher-Yates shuffle over a private copy.
func sample(words []string, n int, intn func(int) int) []string {
	if n > len(words) {
		n = len(words)
	}
	if n <= 0 {
		return nil
	}
	pool := append([]string(nil), words...)
	for i := 0; i < n; i++ {
		j := i + intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return DefaultCategory
	}
	return category
}
