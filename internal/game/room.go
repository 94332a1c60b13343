package game

import (
	"strings"
	"time"
)

type Phase string

const (
	PhaseWaiting     Phase = "WAITING"
	PhasePickingWord Phase = "PICKING_WORD"
	PhaseDrawing     Phase = "DRAWING"
	PhaseDrawEnd     Phase = "DRAW_END"
	PhaseRoundEnd    Phase = "ROUND_END"
	PhaseFinished    Phase = "FINISHED"
)

// InGame reports whether a game is running, i.e. the phase sits between
// "start game" and FINISHED.
func (p Phase) InGame() bool {
	switch p {
	case PhasePickingWord, PhaseDrawing, PhaseDrawEnd, PhaseRoundEnd:
		return true
	default:
		return false
	}
}

// TurnActive reports whether a drawer currently owns the turn.
func (p Phase) TurnActive() bool {
	return p == PhasePickingWord || p == PhaseDrawing
}

// Settings are fixed once the room is created.
type Settings struct {
	MaxRounds         int    `json:"maxRounds"`
	RoundTimeSeconds  int    `json:"roundTimeSeconds"`
	WordChoiceCount   int    `json:"wordChoiceCount"`
	Category          string `json:"category"`
	HintRevealPercent int    `json:"hintRevealPercent"`
	PlayerLimit       int    `json:"playerLimit"`
}

// WithDefaults fills zero values from defaults. HintRevealPercent below zero
// means "use default"; zero is a valid setting (no hints).
func (s Settings) WithDefaults(defaults Settings) Settings {
	if s.MaxRounds <= 0 {
		s.MaxRounds = defaults.MaxRounds
	}
	if s.RoundTimeSeconds <= 0 {
		s.RoundTimeSeconds = defaults.RoundTimeSeconds
	}
	if s.WordChoiceCount <= 0 {
		s.WordChoiceCount = defaults.WordChoiceCount
	}
	if strings.TrimSpace(s.Category) == "" {
		s.Category = defaults.Category
	}
	if s.HintRevealPercent < 0 {
		s.HintRevealPercent = defaults.HintRevealPercent
	}
	if s.HintRevealPercent > 100 {
		s.HintRevealPercent = 100
	}
	if s.PlayerLimit <= 0 {
		s.PlayerLimit = defaults.PlayerLimit
	}
	return s
}

func (s Settings) RoundTime() time.Duration {
	return time.Duration(s.RoundTimeSeconds) * time.Second
}

type Player struct {
	Username                  string    `json:"username"`
	Color                     string    `json:"color"`
	Score                     int       `json:"score"`
	HasDrawnThisGame          bool      `json:"hasDrawnThisGame"`
	HasGuessedCorrectThisTurn bool      `json:"hasGuessedCorrectThisTurn"`
	GuessTimestamp            time.Time `json:"guessTimestamp"`
	TurnPointsEarned          int       `json:"turnPointsEarned"`
	RoundPointsEarned         int       `json:"roundPointsEarned"`
	JoinedAt                  time.Time `json:"joinedAt"`
}

func (p *Player) award(points int) {
	if points <= 0 {
		return
	}
	p.Score += points
	p.TurnPointsEarned += points
	p.RoundPointsEarned += points
}

func (p *Player) resetTurn() {
	p.HasGuessedCorrectThisTurn = false
	p.GuessTimestamp = time.Time{}
	p.TurnPointsEarned = 0
}

// Room is the persisted unit of game state. It is only mutated through the
// engine while the caller holds the room lock.
type Room struct {
	ID                 string          `json:"roomId"`
	Owner              string          `json:"owner"`
	Players            []Player        `json:"players"`
	Phase              Phase           `json:"phase"`
	CurrentRound       int             `json:"currentRound"`
	Settings           Settings        `json:"settings"`
	CurrentDrawer      string          `json:"currentDrawerUsername"`
	CurrentWord        string          `json:"currentWord"`
	PendingWordChoices []string        `json:"pendingWordChoices"`
	TurnStartedAt      time.Time       `json:"turnStartedAt"`
	TurnToken          int64           `json:"turnToken"`
	FullClearAt        time.Time       `json:"fullClearAt"`
	KickedUsernames    map[string]bool `json:"kickedUsernames"`
	UsedWords          []string        `json:"usedWords"`
	Revision           int64           `json:"revision"`
	CreatedAt          time.Time       `json:"createdAt"`
}

type RoomSummary struct {
	ID           string
	Owner        string
	Phase        Phase
	CurrentRound int
	MaxRounds    int
	Players      int
	UpdatedAt    time.Time
}

func NewRoom(id, owner string, settings Settings, at time.Time) *Room {
	return &Room{
		ID:              id,
		Owner:           owner,
		Phase:           PhaseWaiting,
		CurrentRound:    1,
		Settings:        settings,
		TurnStartedAt:   at,
		KickedUsernames: make(map[string]bool),
		CreatedAt:       at,
	}
}

// Clone returns a deep copy so callers can mutate without touching shared
// state.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Players = append([]Player(nil), r.Players...)
	clone.PendingWordChoices = append([]string(nil), r.PendingWordChoices...)
	clone.UsedWords = append([]string(nil), r.UsedWords...)
	clone.KickedUsernames = make(map[string]bool, len(r.KickedUsernames))
	for name := range r.KickedUsernames {
		clone.KickedUsernames[name] = true
	}
	return &clone
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:           r.ID,
		Owner:        r.Owner,
		Phase:        r.Phase,
		CurrentRound: r.CurrentRound,
		MaxRounds:    r.Settings.MaxRounds,
		Players:      len(r.Players),
	}
}

func (r *Room) FindPlayer(username string) (*Player, bool) {
	for i := range r.Players {
		if strings.EqualFold(r.Players[i].Username, username) {
			return &r.Players[i], true
		}
	}
	return nil, false
}

func (r *Room) HasPlayer(username string) bool {
	_, ok := r.FindPlayer(username)
	return ok
}

func (r *Room) IsDrawer(username string) bool {
	return r.CurrentDrawer != "" && strings.EqualFold(r.CurrentDrawer, username)
}

func (r *Room) Drawer() (*Player, bool) {
	if r.CurrentDrawer == "" {
		return nil, false
	}
	return r.FindPlayer(r.CurrentDrawer)
}

func (r *Room) IsKicked(username string) bool {
	return r.KickedUsernames[usernameKey(username)]
}

func (r *Room) AddPlayer(username string, baseline int, at time.Time) *Player {
	r.Players = append(r.Players, Player{
		Username: username,
		Color:    pickPlayerColor(len(r.Players)),
		Score:    baseline,
		JoinedAt: at,
	})
	if r.Owner == "" {
		r.Owner = username
	}
	return &r.Players[len(r.Players)-1]
}

// RemovePlayer drops the player and hands ownership to the longest-standing
// remaining player when the owner leaves.
func (r *Room) RemovePlayer(username string) (Player, bool) {
	for i := range r.Players {
		if !strings.EqualFold(r.Players[i].Username, username) {
			continue
		}
		removed := r.Players[i]
		r.Players = append(r.Players[:i], r.Players[i+1:]...)
		if strings.EqualFold(r.Owner, removed.Username) {
			r.Owner = ""
			if len(r.Players) > 0 {
				r.Owner = r.Players[0].Username
			}
		}
		return removed, true
	}
	return Player{}, false
}

func (r *Room) Kick(username string) {
	if r.KickedUsernames == nil {
		r.KickedUsernames = make(map[string]bool)
	}
	r.KickedUsernames[usernameKey(username)] = true
}

func (r *Room) guessers() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for i := range r.Players {
		if r.IsDrawer(r.Players[i].Username) {
			continue
		}
		out = append(out, &r.Players[i])
	}
	return out
}

func (r *Room) correctGuessers(except string) int {
	count := 0
	for _, p := range r.Players {
		if p.HasGuessedCorrectThisTurn && !strings.EqualFold(p.Username, except) {
			count++
		}
	}
	return count
}

// everyoneGuessed is true when at least one guesser exists and all of them
// have the word.
func (r *Room) everyoneGuessed() bool {
	guessers := r.guessers()
	if len(guessers) == 0 {
		return false
	}
	for _, p := range guessers {
		if !p.HasGuessedCorrectThisTurn {
			return false
		}
	}
	return true
}

func (r *Room) undrawn() []string {
	names := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if p.HasDrawnThisGame || r.IsDrawer(p.Username) {
			continue
		}
		names = append(names, p.Username)
	}
	return names
}

func (r *Room) leader() (Player, bool) {
	if len(r.Players) == 0 {
		return Player{}, false
	}
	best := r.Players[0]
	for _, p := range r.Players[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, true
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func pickPlayerColor(index int) string {
	palette := []string{
		"#ff6b6b",
		"#4dabf7",
		"#51cf66",
		"#ffa94d",
		"#ffd43b",
		"#845ef7",
		"#20c997",
		"#e64980",
	}
	if index < 0 {
		index = 0
	}
	return palette[index%len(palette)]
}
