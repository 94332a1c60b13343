package game

import "time"

type PlayerView struct {
	Username          string `json:"username"`
	Color             string `json:"color"`
	Score             int    `json:"score"`
	IsDrawer          bool   `json:"isDrawer"`
	IsOwner           bool   `json:"isOwner"`
	HasDrawn          bool   `json:"hasDrawnThisGame"`
	HasGuessedCorrect bool   `json:"hasGuessedCorrectThisTurn"`
	TurnPointsEarned  int    `json:"turnPointsEarned"`
	RoundPointsEarned int    `json:"roundPointsEarned"`
}

// RoomView is what a single connection is allowed to see of a room.
type RoomView struct {
	RoomID             string       `json:"roomId"`
	Owner              string       `json:"owner"`
	Phase              Phase        `json:"phase"`
	CurrentRound       int          `json:"currentRound"`
	Settings           Settings     `json:"settings"`
	Players            []PlayerView `json:"players"`
	CurrentDrawer      string       `json:"currentDrawerUsername"`
	Word               string       `json:"word,omitempty"`
	WordHint           string       `json:"wordHint,omitempty"`
	WordLength         int          `json:"wordLength,omitempty"`
	PendingWordChoices []string     `json:"pendingWordChoices,omitempty"`
	TurnStartedAt      time.Time    `json:"turnStartedAt"`
	TurnEndsAt         *time.Time   `json:"turnEndsAt,omitempty"`
	ServerTime         time.Time    `json:"serverTime"`
}

type ChatMessage struct {
	RoomID    string    `json:"roomId"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"timestamp"`
}

// View renders room for viewer. The word is shown to the drawer and to
// guessers who already have it; everyone else gets the hint until the turn
// is over.
func (e *Engine) View(room *Room, viewer string) RoomView {
	now := e.now()
	view := RoomView{
		RoomID:        room.ID,
		Owner:         room.Owner,
		Phase:         room.Phase,
		CurrentRound:  room.CurrentRound,
		Settings:      room.Settings,
		Players:       make([]PlayerView, 0, len(room.Players)),
		CurrentDrawer: room.CurrentDrawer,
		TurnStartedAt: room.TurnStartedAt,
		ServerTime:    now,
	}
	for _, p := range room.Players {
		view.Players = append(view.Players, PlayerView{
			Username:          p.Username,
			Color:             p.Color,
			Score:             p.Score,
			IsDrawer:          room.IsDrawer(p.Username),
			IsOwner:           p.Username == room.Owner,
			HasDrawn:          p.HasDrawnThisGame,
			HasGuessedCorrect: p.HasGuessedCorrectThisTurn,
			TurnPointsEarned:  p.TurnPointsEarned,
			RoundPointsEarned: p.RoundPointsEarned,
		})
	}
	if deadline, ok := e.Deadline(room); ok {
		view.TurnEndsAt = &deadline
	}

	if room.Phase == PhasePickingWord && room.IsDrawer(viewer) {
		view.PendingWordChoices = append([]string(nil), room.PendingWordChoices...)
	}
	if room.CurrentWord == "" || room.Phase == PhasePickingWord || room.Phase == PhaseWaiting {
		return view
	}
	view.WordLength = len([]rune(room.CurrentWord))
	if canSeeWord(room, viewer) {
		view.Word = room.CurrentWord
		return view
	}
	view.WordHint = WordHint(room.CurrentWord, room.Settings.HintRevealPercent,
		now.Sub(room.TurnStartedAt), room.Settings.RoundTime())
	return view
}

func canSeeWord(room *Room, viewer string) bool {
	switch room.Phase {
	case PhaseDrawEnd, PhaseRoundEnd, PhaseFinished:
		return true
	}
	if room.IsDrawer(viewer) {
		return true
	}
	p, ok := room.FindPlayer(viewer)
	return ok && p.HasGuessedCorrectThisTurn
}
