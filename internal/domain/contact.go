package domain

import "context"

// ContactEvent is one parsed QSO as published to downstream consumers. From
// and To are nil when that side could not be resolved.
type ContactEvent struct {
	UploadID string      `json:"upload_id"`
	Index    int         `json:"index"`
	Call     string      `json:"call"`
	QSODate  string      `json:"qso_date,omitempty"`
	From     *Coordinate `json:"from,omitempty"`
	To       *Coordinate `json:"to,omitempty"`
	Record   Record      `json:"record"`
}

// ContactPublisher ships contact events out of the process.
type ContactPublisher interface {
	Publish(ctx context.Context, events []ContactEvent) error
}
