package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sirosfoundation/go-oagis/internal/storage"
	"github.com/sirosfoundation/go-oagis/pkg/envelope"
	"github.com/sirosfoundation/go-oagis/pkg/errlist"
	"github.com/sirosfoundation/go-oagis/pkg/isodate"
)

// ConfirmBODReceiver handles inbound CONFIRM/BOD envelopes: confirmations
// reporting errors a trading partner hit processing a message we sent.
//
// The confirmation gets its own message record regardless of whether
// correlation succeeds. Reported errors are attached to the original
// message's key, one error record per CONFIRMMSG entry, all entries
// attempted even when some fail. The confirmation's record only advances
// to processed when the whole run accumulated zero errors.
type ConfirmBODReceiver struct {
	store   storage.Store
	logger  *slog.Logger
	capture bool
}

// NewConfirmBODReceiver creates the CONFIRM/BOD handler. When capture is
// set, the raw message text is retained on the created record.
func NewConfirmBODReceiver(store storage.Store, logger *slog.Logger, capture bool) *ConfirmBODReceiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfirmBODReceiver{store: store, logger: logger, capture: capture}
}

// Handle implements the Handler interface.
func (h *ConfirmBODReceiver) Handle(ctx context.Context, env *envelope.Envelope) *Result {
	var errs errlist.List

	key := storage.MessageKey(env.Sender.Ref)
	log := h.logger.With(
		"logical_id", key.LogicalID,
		"component", key.Component,
		"task", key.Task,
		"reference_id", key.ReferenceID,
	)

	cb, err := env.ConfirmBOD()
	if err != nil {
		errs.Addf(errlist.ReasonXMLSyntax, "error parsing Confirm BOD data area: %v", err)
		log.Error("confirm BOD data area parse failed", "error", err)
		return h.result(env, errs)
	}

	sentAt := isodate.Parse(env.SentDate, &errs)
	now := time.Now()

	rec := &storage.MessageRecord{
		Key:          key,
		Direction:    storage.DirectionIncoming,
		Status:       storage.StatusReceived,
		AuthID:       env.Sender.AuthID,
		Confirmation: env.Sender.Confirmation,
		BSRVerb:      env.BSR.Verb,
		BSRNoun:      env.BSR.Noun,
		BSRRevision:  env.BSR.Revision,
		OriginalRef:  cb.OrigRef,
		SentAt:       sentAt,
		ReceivedAt:   &now,
	}
	if h.capture {
		rec.FullMessage = string(env.Raw)
	}

	// Creation failure is non-fatal: correlation still proceeds so the
	// reported errors are not lost.
	if err := h.store.CreateMessage(ctx, rec); err != nil {
		errs.Addf(errlist.ReasonService, "error creating message record for the incoming confirmation: %v", err)
		log.Error("failed to create confirmation message record", "error", err)
	}

	originalKey := storage.MessageKey(cb.Original)
	original, err := h.store.FindMessage(ctx, originalKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		errs.Addf(errlist.ReasonEntity, "error looking up original message record: %v", err)
		log.Error("original message lookup failed", "error", err)
	}

	if original != nil {
		for _, msg := range cb.Messages {
			errRec := &storage.MessageErrorRecord{
				Key:         originalKey,
				ReasonCode:  msg.ReasonCode,
				Description: msg.Description,
			}
			if err := h.store.CreateMessageError(ctx, errRec); err != nil {
				errs.Addf(errlist.ReasonCreateErrorInfo, "error creating message error record: %v", err)
				log.Error("failed to create message error record", "reason_code", msg.ReasonCode, "error", err)
			}
		}
	} else if errors.Is(err, storage.ErrNotFound) || err == nil {
		errs.Addf(errlist.ReasonOriginalNotFound,
			"no such message with an error was found; not creating error records; original key: %+v", originalKey)
		log.Warn("original message not found for confirmation",
			"original_logical_id", originalKey.LogicalID,
			"original_reference_id", originalKey.ReferenceID)
	}

	if !errs.Empty() {
		// Leave the confirmation at its created status; downstream
		// tooling finds it by the missing success transition.
		return h.result(env, errs)
	}

	if err := h.store.UpdateMessageStatus(ctx, key, storage.StatusProcessed); err != nil {
		log.Error("failed to update confirmation status", "error", err)
	}
	return h.result(env, nil)
}

func (h *ConfirmBODReceiver) result(env *envelope.Envelope, errs errlist.List) *Result {
	return &Result{
		Success:     errs.Empty(),
		ContentType: ContentTypePlain,
		Errors:      errs,
		LogicalID:   env.Sender.LogicalID,
		Component:   env.Sender.Component,
		Task:        env.Sender.Task,
		ReferenceID: env.Sender.ReferenceID,
	}
}
