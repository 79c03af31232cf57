// Package storage provides the message record store gateway for the OAGIS
// dispatch engine.
//
// # Interface Design
//
// The store tracks one [MessageRecord] per document exchanged, keyed by the
// composite (logicalId, component, task, referenceId) identity, plus zero
// or more [MessageErrorRecord] rows attached to records that a confirmation
// reported errors against.
//
// # Implementations
//
// The mongodb sub-package provides a production implementation backed by a
// unique compound index. The memory sub-package provides an in-process
// implementation for tests and embedding.
//
// # Concurrency
//
// The store is the sole point of concurrency control in the engine: all
// implementations must be safe for concurrent use and must make
// CreateMessage atomic with respect to key uniqueness, so two concurrent
// deliveries of the same key yield exactly one success and one
// [ErrDuplicateKey].
package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrDuplicateKey is returned by CreateMessage when a record with the
	// same composite key already exists. The existing record is never
	// overwritten.
	ErrDuplicateKey = errors.New("message key already exists")
	// ErrNotFound is returned when no record matches the given key.
	ErrNotFound = errors.New("message not found")
)

// Store is the message record store gateway.
type Store interface {
	// CreateMessage stores a new message record. Returns ErrDuplicateKey
	// if a record with the same composite key exists.
	CreateMessage(ctx context.Context, rec *MessageRecord) error

	// FindMessage retrieves a record by composite key. Returns ErrNotFound
	// when absent.
	FindMessage(ctx context.Context, key MessageKey) (*MessageRecord, error)

	// UpdateMessage replaces the mutable fields of an existing record.
	UpdateMessage(ctx context.Context, rec *MessageRecord) error

	// UpdateMessageStatus advances just the processing status of a record.
	UpdateMessageStatus(ctx context.Context, key MessageKey, status ProcessingStatus) error

	// CreateMessageError attaches an error record to a message by key.
	CreateMessageError(ctx context.Context, rec *MessageErrorRecord) error

	// ListMessageErrors returns the error records attached to a message,
	// oldest first.
	ListMessageErrors(ctx context.Context, key MessageKey) ([]*MessageErrorRecord, error)

	// Close releases storage resources.
	Close(ctx context.Context) error

	// Ping checks store connectivity.
	Ping(ctx context.Context) error
}

// MessageKey is the composite identity of one exchanged message.
type MessageKey struct {
	LogicalID   string `bson:"logical_id" json:"logicalId"`
	Component   string `bson:"component" json:"component"`
	Task        string `bson:"task" json:"task"`
	ReferenceID string `bson:"reference_id" json:"referenceId"`
}

// Direction marks which side of the exchange produced a message.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// ProcessingStatus is the lifecycle state of a message record.
//
// Outbound records advance TRIGGERED -> OGEN_SUCCESS -> SENT; inbound
// records advance RECEIVED -> PROC_SUCCESS. There is no rollback: a failed
// step leaves the record at its last reached status.
type ProcessingStatus string

const (
	// StatusTriggered marks an outbound message whose generation has begun.
	StatusTriggered ProcessingStatus = "OAGMP_TRIGGERED"
	// StatusGenerated marks an outbound message whose body rendered
	// successfully.
	StatusGenerated ProcessingStatus = "OAGMP_OGEN_SUCCESS"
	// StatusSent marks an outbound message delivered without error.
	StatusSent ProcessingStatus = "OAGMP_SENT"
	// StatusReceived marks an inbound message at first sight.
	StatusReceived ProcessingStatus = "OAGMP_RECEIVED"
	// StatusProcessed marks an inbound message handled with zero errors.
	StatusProcessed ProcessingStatus = "OAGMP_PROC_SUCCESS"
)

// MessageRecord tracks one exchanged OAGIS document.
type MessageRecord struct {
	Key       MessageKey       `bson:"key" json:"key"`
	Direction Direction        `bson:"direction" json:"direction"`
	Status    ProcessingStatus `bson:"status" json:"status"`

	AuthID       string `bson:"auth_id,omitempty" json:"authId,omitempty"`
	Confirmation string `bson:"confirmation,omitempty" json:"confirmation,omitempty"`

	// BSR taxonomy of the document.
	BSRVerb     string `bson:"bsr_verb" json:"bsrVerb"`
	BSRNoun     string `bson:"bsr_noun" json:"bsrNoun"`
	BSRRevision string `bson:"bsr_revision,omitempty" json:"bsrRevision,omitempty"`

	// OriginalRef is a weak reference to the message this one responds to.
	OriginalRef string `bson:"original_ref,omitempty" json:"originalRef,omitempty"`

	SentAt     *time.Time `bson:"sent_at,omitempty" json:"sentAt,omitempty"`
	ReceivedAt *time.Time `bson:"received_at,omitempty" json:"receivedAt,omitempty"`

	// FullMessage holds the captured message text when debug capture is
	// enabled for the record's direction.
	FullMessage string `bson:"full_message,omitempty" json:"fullMessage,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// MessageErrorRecord is one error a confirmation reported against, or
// processing raised for, a stored message. It references the message by
// composite key, not by object.
type MessageErrorRecord struct {
	Key         MessageKey `bson:"key" json:"key"`
	ReasonCode  string     `bson:"reason_code" json:"reasonCode"`
	Description string     `bson:"description" json:"description"`
	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
}
