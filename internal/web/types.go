package web

import "time"

type RoomSummary struct {
	ID           string
	Owner        string
	Phase        string
	CurrentRound int
	MaxRounds    int
	Players      int
	Connected    int
	CreatedAt    time.Time
}

type PaginationData struct {
	BasePath   string
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

type AdminRoomsData struct {
	Rooms      []RoomSummary
	Categories []string
	Pagination PaginationData
}
