package game

import (
	"hash/fnv"
	"math/rand/v2"
	"time"
	"unicode"
)

const hintMask = '_'

// WordHint masks the letters of word, revealing up to percent of them as the
// turn progresses. Positions are derived from the word itself so every viewer
// sees the same letters, and at least one letter always stays hidden.
func WordHint(word string, percent int, elapsed, total time.Duration) string {
	runes := []rune(word)
	letters := make([]int, 0, len(runes))
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters = append(letters, i)
		}
	}
	reveal := revealCount(len(letters), percent, elapsed, total)

	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(word))
	seed := hasher.Sum64()
	order := rand.New(rand.NewPCG(seed, seed>>1|1)).Perm(len(letters))
	shown := make(map[int]struct{}, reveal)
	for _, idx := range order[:reveal] {
		shown[letters[idx]] = struct{}{}
	}

	out := make([]rune, len(runes))
	for i, r := range runes {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			out[i] = r
			continue
		}
		if _, ok := shown[i]; ok {
			out[i] = r
			continue
		}
		out[i] = hintMask
	}
	return string(out)
}

func revealCount(letters, percent int, elapsed, total time.Duration) int {
	if letters <= 1 || percent <= 0 || total <= 0 || elapsed <= 0 {
		return 0
	}
	if elapsed > total {
		elapsed = total
	}
	progress := float64(elapsed) / float64(total)
	count := int(float64(letters) * float64(percent) / 100 * progress)
	if count >= letters {
		count = letters - 1
	}
	return count
}
