// Package confirm builds and sends outbound Confirm BOD documents.
//
// A Confirm BOD reports the errors accumulated while processing a trading
// partner's message back to that partner. The sender owns the full
// outbound lifecycle of its own message record: created at TRIGGERED,
// advanced to OGEN_SUCCESS once the document body renders, and to SENT
// once the delivery channel accepts it. A failure at any step returns an
// error and leaves the record at its last reached status, so the send step
// can be retried independently of rendering.
//
// Document rendering is external: the sender assembles typed template data
// and hands it to the configured Renderer.
package confirm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sirosfoundation/go-oagis/internal/storage"
	"github.com/sirosfoundation/go-oagis/pkg/delivery"
	"github.com/sirosfoundation/go-oagis/pkg/errlist"
	"github.com/sirosfoundation/go-oagis/pkg/isodate"
)

// Control-area constants for outbound Confirm BODs. ComponentException and
// TaskReceipt are wire values fixed by the exchange profile, including the
// historical spelling of RECIEPT.
const (
	ComponentException = "EXCEPTION"
	TaskReceipt        = "RECIEPT"
	BSRVerb            = "CONFIRM"
	BSRNoun            = "BOD"
	BSRRevision        = "004"
)

// Renderer turns template data into serialized document text. It is an
// external collaborator; the template language is out of scope here.
type Renderer interface {
	Render(ctx context.Context, templateID string, data *TemplateData) (string, error)
}

// TemplateData is the parameter set for rendering a Confirm BOD body.
type TemplateData struct {
	// Sender identity of this access point.
	LogicalID string
	AuthID    string

	// ReferenceID and SentDate identify the confirmation itself.
	ReferenceID string
	SentDate    string

	// Identity of the erroring message being confirmed.
	ErrorLogicalID   string
	ErrorComponent   string
	ErrorTask        string
	ErrorReferenceID string
	OrigRef          string

	// Errors to report, in order of occurrence.
	Errors []errlist.Entry
}

// Request describes one outbound Confirm BOD send.
type Request struct {
	// Identity of the message the errors were raised against.
	ErrorLogicalID   string
	ErrorComponent   string
	ErrorTask        string
	ErrorReferenceID string
	OrigRef          string

	// Errors to report.
	Errors []errlist.Entry

	// Delivery target overrides. Empty fields fall back to the sender's
	// configured defaults; SaveToFilename additionally falls back to
	// <base>ConfirmBod<ErrorReferenceID>.xml when a filename base is
	// configured.
	SendToURL       string
	SaveToDirectory string
	SaveToFilename  string
	Output          io.WriteCloser
}

// Options configures a Sender.
type Options struct {
	// LogicalID and AuthID identify this access point in the control area.
	LogicalID string
	AuthID    string

	// TemplateID names the Confirm BOD template passed to the renderer.
	TemplateID string

	// Default delivery targets used when the request supplies none.
	DefaultSendToURL       string
	DefaultSaveToDirectory string
	SaveToFilenameBase     string

	// CaptureOutbound retains the rendered text on the message record.
	CaptureOutbound bool

	Logger *slog.Logger
}

// Sender drives the outbound Confirm BOD lifecycle.
type Sender struct {
	store    storage.Store
	renderer Renderer
	channel  *delivery.Channel
	opts     Options
	logger   *slog.Logger
}

// NewSender creates a Confirm BOD sender.
func NewSender(store storage.Store, renderer Renderer, channel *delivery.Channel, opts Options) *Sender {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		store:    store,
		renderer: renderer,
		channel:  channel,
		opts:     opts,
		logger:   logger,
	}
}

// Send builds, renders, and delivers one Confirm BOD. It returns the
// generated reference id of the confirmation for correlation. A render
// failure returns before any delivery attempt; a delivery failure returns
// with the record left at OGEN_SUCCESS so the send can be retried.
func (s *Sender) Send(ctx context.Context, req *Request) (string, error) {
	referenceID := uuid.NewString()
	now := time.Now()

	log := s.logger.With(
		"reference_id", referenceID,
		"error_reference_id", req.ErrorReferenceID,
	)

	key := storage.MessageKey{
		LogicalID:   s.opts.LogicalID,
		Component:   ComponentException,
		Task:        TaskReceipt,
		ReferenceID: referenceID,
	}
	rec := &storage.MessageRecord{
		Key:          key,
		Direction:    storage.DirectionOutgoing,
		Status:       storage.StatusTriggered,
		AuthID:       s.opts.AuthID,
		Confirmation: "0",
		BSRVerb:      BSRVerb,
		BSRNoun:      BSRNoun,
		BSRRevision:  BSRRevision,
		OriginalRef:  req.OrigRef,
		SentAt:       &now,
	}
	// Record creation failure is logged but does not block the send; the
	// partner still gets the confirmation.
	if err := s.store.CreateMessage(ctx, rec); err != nil {
		log.Error("failed to create outbound message record", "error", err)
	}

	data := &TemplateData{
		LogicalID:        s.opts.LogicalID,
		AuthID:           s.opts.AuthID,
		ReferenceID:      referenceID,
		SentDate:         isodate.Format(now),
		ErrorLogicalID:   req.ErrorLogicalID,
		ErrorComponent:   req.ErrorComponent,
		ErrorTask:        req.ErrorTask,
		ErrorReferenceID: req.ErrorReferenceID,
		OrigRef:          req.OrigRef,
		Errors:           req.Errors,
	}

	text, err := s.renderer.Render(ctx, s.opts.TemplateID, data)
	if err != nil {
		return referenceID, fmt.Errorf("rendering Confirm BOD message: %w", err)
	}
	log.Info("rendered Confirm BOD message")

	rec.Status = storage.StatusGenerated
	if s.opts.CaptureOutbound {
		rec.FullMessage = text
	}
	if err := s.store.UpdateMessage(ctx, rec); err != nil {
		log.Error("failed to update message record after render", "error", err)
	}

	if err := s.channel.Send(ctx, text, s.target(req)); err != nil {
		return referenceID, fmt.Errorf("delivering Confirm BOD message: %w", err)
	}
	log.Info("Confirm BOD message sent")

	if err := s.store.UpdateMessageStatus(ctx, key, storage.StatusSent); err != nil {
		log.Error("failed to update message record after send", "error", err)
	}
	return referenceID, nil
}

// target resolves the delivery target from the request with configured
// fallbacks.
func (s *Sender) target(req *Request) delivery.Target {
	tgt := delivery.Target{
		Writer:    req.Output,
		Directory: req.SaveToDirectory,
		Filename:  req.SaveToFilename,
		URL:       req.SendToURL,
	}
	if tgt.URL == "" {
		tgt.URL = s.opts.DefaultSendToURL
	}
	if tgt.Directory == "" {
		tgt.Directory = s.opts.DefaultSaveToDirectory
	}
	if tgt.Filename == "" && s.opts.SaveToFilenameBase != "" {
		tgt.Filename = s.opts.SaveToFilenameBase + "ConfirmBod" + req.ErrorReferenceID + ".xml"
	}
	return tgt
}
