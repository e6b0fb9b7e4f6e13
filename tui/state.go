package tui

type state int

const (
	loadingState state = iota + 1
	playingState
	playlistState
	errorState
)
