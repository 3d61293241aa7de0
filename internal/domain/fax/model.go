// Package fax records outbound faxes and ingests delivery status callbacks
// from the carrier. The carrier is the source of truth for delivery state;
// this service only mirrors what the webhook reports.
package fax

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// Status mirrors the carrier's lifecycle vocabulary.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusSending   Status = "sending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusNoAnswer  Status = "no_answer"
	StatusBusy      Status = "busy"
	StatusCanceled  Status = "canceled"
	StatusReceiving Status = "receiving"
	StatusReceived  Status = "received"
)

var validStatuses = map[Status]bool{
	StatusQueued:    true,
	StatusSending:   true,
	StatusDelivered: true,
	StatusFailed:    true,
	StatusNoAnswer:  true,
	StatusBusy:      true,
	StatusCanceled:  true,
	StatusReceiving: true,
	StatusReceived:  true,
}

// Fax is one transmission. CarrierSID is the carrier's identifier and is the
// key status callbacks match against.
type Fax struct {
	ID              uuid.UUID `json:"id"`
	OrgID           uuid.UUID `json:"org_id"`
	Direction       Direction `json:"direction"`
	ToNumber        string    `json:"to_number"`
	FromNumber      string    `json:"from_number"`
	CarrierSID      string    `json:"carrier_sid"`
	Status          Status    `json:"status"`
	PageCount       int       `json:"page_count"`
	DurationSeconds int       `json:"duration_seconds"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	MediaURL        string    `json:"media_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
