// Package dispatch implements the inbound routing state machine for OAGIS
// messages.
//
// The dispatcher is the single entry point for raw inbound documents. For
// each message it:
//
//  1. Parses the control area of the XML envelope.
//  2. Validates that the BSR verb and noun are present.
//  3. Rejects duplicates by composite key before any handler runs, giving
//     an at-most-once processing guarantee.
//  4. Routes to the business handler matching the verb/noun taxonomy
//     (with the ACKNOWLEDGE/DELIVERY branch split by document type).
//  5. Merges handler-level and dispatcher-level errors into one ordered
//     result, handler errors first.
//
// Routing is a static table fixed at construction: verb/noun comparison is
// case-insensitive and the key space is disjoint, so the first matching
// rule wins.
//
// The dispatcher never returns a Go error to its caller; every outcome is
// a structured Result, success or error-with-details.
package dispatch

import (
	"context"
	"encoding/xml"
	"errors"
	"log/slog"
	"strings"

	"github.com/sirosfoundation/go-oagis/internal/storage"
	"github.com/sirosfoundation/go-oagis/pkg/envelope"
	"github.com/sirosfoundation/go-oagis/pkg/errlist"
)

// ContentTypePlain is the content type of every dispatch result.
const ContentTypePlain = "text/plain"

// Result is the structured outcome of one inbound message.
type Result struct {
	Success     bool         `json:"success"`
	ContentType string       `json:"contentType"`
	Errors      errlist.List `json:"errors,omitempty"`

	// Routed fields: the sender identity of the processed message, set by
	// handlers that resolve it.
	LogicalID   string `json:"logicalId,omitempty"`
	Component   string `json:"component,omitempty"`
	Task        string `json:"task,omitempty"`
	ReferenceID string `json:"referenceId,omitempty"`
}

func errorResult(errs errlist.List) *Result {
	return &Result{ContentType: ContentTypePlain, Errors: errs}
}

// Handler processes one routed inbound envelope. Handlers accumulate
// errors into their result rather than failing the dispatcher.
type Handler interface {
	Handle(ctx context.Context, env *envelope.Envelope) *Result
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, env *envelope.Envelope) *Result

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, env *envelope.Envelope) *Result {
	return f(ctx, env)
}

// Routes is the static routing table, one handler per defined verb/noun
// combination. A nil entry means the route is not served by this node and
// matching messages fail with a service error.
type Routes struct {
	// ConfirmBOD serves CONFIRM/BOD confirmation receipts.
	ConfirmBOD Handler
	// ShowShipment serves SHOW/SHIPMENT shipment displays.
	ShowShipment Handler
	// SyncInventory serves SYNC/INVENTORY inventory syncs.
	SyncInventory Handler
	// POAcknowledge serves ACKNOWLEDGE/DELIVERY with DOCTYPE "PO".
	POAcknowledge Handler
	// RMAAcknowledge serves ACKNOWLEDGE/DELIVERY with DOCTYPE "RMA".
	RMAAcknowledge Handler
}

// Options adjusts dispatcher behavior.
type Options struct {
	// CaptureInbound logs the raw inbound text at debug level and retains
	// it on created records. Off by default; full message bodies are never
	// logged otherwise.
	CaptureInbound bool
	Logger         *slog.Logger
}

// Dispatcher routes inbound OAGIS messages to business handlers.
type Dispatcher struct {
	store   storage.Store
	routes  Routes
	capture bool
	logger  *slog.Logger
}

// New creates a dispatcher over a message store and a fixed routing table.
func New(store storage.Store, routes Routes, opts *Options) *Dispatcher {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:   store,
		routes:  routes,
		capture: opts.CaptureInbound,
		logger:  logger,
	}
}

// Receive processes one raw inbound message and returns its structured
// result. It never returns a Go error: parse failures, validation
// failures, duplicates, and handler failures all surface as error entries
// in the result.
func (d *Dispatcher) Receive(ctx context.Context, raw []byte) *Result {
	var dispatchErrs errlist.List

	if d.capture {
		d.logger.Debug("received OAGIS message", "text", string(raw))
	}

	env, err := envelope.Parse(raw)
	if err != nil {
		var syntaxErr *xml.SyntaxError
		reason := errlist.ReasonIO
		if errors.As(err, &syntaxErr) || errors.Is(err, envelope.ErrMalformed) {
			reason = errlist.ReasonXMLSyntax
		}
		dispatchErrs.Addf(reason, "error parsing the received message: %v", err)
		d.logger.Error("inbound message parse failed", "error", err)
		return errorResult(dispatchErrs)
	}

	if env.BSR.Verb == "" || env.BSR.Noun == "" {
		dispatchErrs.Addf(errlist.ReasonValidation,
			"received and parsed the message, but BSR NOUN [%s] and/or VERB [%s] are empty",
			env.BSR.Noun, env.BSR.Verb)
		return errorResult(dispatchErrs)
	}

	key := storage.MessageKey(env.Sender.Ref)
	log := d.logger.With(
		"logical_id", key.LogicalID,
		"component", key.Component,
		"task", key.Task,
		"reference_id", key.ReferenceID,
		"bsr_verb", env.BSR.Verb,
		"bsr_noun", env.BSR.Noun,
	)

	// Duplicate check before any handler side effects. A store failure
	// here is logged and treated as not-found so a flaky lookup cannot
	// drop a fresh message.
	existing, err := d.store.FindMessage(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Error("duplicate check lookup failed", "error", err)
	}
	if existing != nil {
		log.Warn("rejecting duplicate message")
		dispatchErrs.Addf(errlist.ReasonDuplicate, "message has already been received")
		return errorResult(dispatchErrs)
	}

	handler, routeErr := d.route(env)
	if routeErr != nil {
		dispatchErrs.Add(routeErr.ReasonCode, routeErr.Description)
		log.Error("unroutable message", "reason", routeErr.Description)
		return errorResult(dispatchErrs)
	}

	sub := handler.Handle(ctx, env)
	if sub == nil {
		sub = &Result{Success: true}
	}

	// Merge: handler errors first, dispatcher-level errors appended.
	merged := *sub
	merged.ContentType = ContentTypePlain
	merged.Errors = append(errlist.List{}, sub.Errors...)
	merged.Errors.Merge(dispatchErrs)
	merged.Success = sub.Success && merged.Errors.Empty()
	return &merged
}

// route selects the handler for an envelope, or describes why none
// applies.
func (d *Dispatcher) route(env *envelope.Envelope) (Handler, *errlist.Entry) {
	bsr := env.BSR
	switch {
	case bsr.Is("CONFIRM", "BOD"):
		return d.resolved(d.routes.ConfirmBOD, "receiveConfirmBod")
	case bsr.Is("SHOW", "SHIPMENT"):
		return d.resolved(d.routes.ShowShipment, "showShipment")
	case bsr.Is("SYNC", "INVENTORY"):
		return d.resolved(d.routes.SyncInventory, "syncInventory")
	case bsr.Is("ACKNOWLEDGE", "DELIVERY"):
		docType := env.AckDeliveryDocType()
		switch docType {
		case "PO":
			return d.resolved(d.routes.POAcknowledge, "receivePoAcknowledge")
		case "RMA":
			return d.resolved(d.routes.RMAAcknowledge, "receiveRmaAcknowledge")
		default:
			return nil, &errlist.Entry{
				ReasonCode: errlist.ReasonValidation,
				Description: "for Acknowledge Delivery message could not determine if it is for a PO or RMA, DOCTYPE from message is " +
					strings.TrimSpace(docType),
			}
		}
	default:
		return nil, &errlist.Entry{
			ReasonCode:  errlist.ReasonValidation,
			Description: "unknown message received: VERB [" + bsr.Verb + "] NOUN [" + bsr.Noun + "]",
		}
	}
}

// resolved wraps a routing-table entry, reporting unserved routes as
// handler invocation failures rather than crashing the dispatcher.
func (d *Dispatcher) resolved(h Handler, name string) (Handler, *errlist.Entry) {
	if h != nil {
		return h, nil
	}
	return HandlerFunc(func(ctx context.Context, env *envelope.Envelope) *Result {
		var errs errlist.List
		errs.Addf(errlist.ReasonService, "error running service %s: no handler configured", name)
		return errorResult(errs)
	}), nil
}
