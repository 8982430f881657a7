// Package events описывает контракт событий об отзывах,
// которые reviews-service публикует в Kafka, а stats-worker читает.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	ReviewCreated EventType = "REVIEW_CREATED"
	ReviewUpdated EventType = "REVIEW_UPDATED"
	ReviewDeleted EventType = "REVIEW_DELETED"
)

// ReviewEvent - событие изменения отзыва
// PreviousRating заполняется только для REVIEW_UPDATED
type ReviewEvent struct {
	EventType      EventType `json:"event_type"`
	ReviewID       string    `json:"review_id"`
	Country        string    `json:"country"`
	Rating         int       `json:"rating"`
	PreviousRating int       `json:"previous_rating,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Marshal сериализует событие в JSON для отправки в Kafka
func (e ReviewEvent) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal review event: %w", err)
	}
	return data, nil
}

// Unmarshal разбирает сообщение Kafka и проверяет тип события
func Unmarshal(data []byte) (ReviewEvent, error) {
	var event ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ReviewEvent{}, fmt.Errorf("failed to unmarshal review event: %w", err)
	}

	switch event.EventType {
	case ReviewCreated, ReviewUpdated, ReviewDeleted:
		return event, nil
	default:
		return ReviewEvent{}, fmt.Errorf("unknown event type %q", event.EventType)
	}
}
