package service

import (
	"time"

	"github.com/staffsched/approvals/internal/model"
	"github.com/staffsched/approvals/internal/websocket"
)

// EventPublisher receives approval lifecycle events. *websocket.Hub implements it.
type EventPublisher interface {
	Publish(ev websocket.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(websocket.Event) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func approvalEvent(name string, req *model.ApprovalRequest) websocket.Event {
	return websocket.Event{
		Event:       name,
		ApprovalID:  req.ID.String(),
		Type:        req.Type,
		Status:      req.Status,
		RequesterID: req.RequesterID,
		ApproverID:  req.ApproverID,
		At:          time.Now().UTC(),
	}
}
