package dto

import "time"

type AddWatchlistRequest struct {
	Symbol string `json:"symbol" validate:"required,max=16"`
}

type WatchlistItem struct {
	ID        uint      `json:"id"`
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
	Quote     *Quote    `json:"quote,omitempty"`
	Error     string    `json:"error,omitempty"`
}
