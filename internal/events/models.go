package events

import (
	"time"

	"github.com/romiluz13/Studio-Oscar/internal/models"
)

type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	IsEvent     bool      `json:"is_event"`
	Location    string    `json:"location"`
}

type RSVPInput struct {
	Status models.RSVPStatus `json:"status"`
}
