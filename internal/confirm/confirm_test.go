package confirm

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-oagis/internal/storage"
	"github.com/sirosfoundation/go-oagis/internal/storage/memory"
	"github.com/sirosfoundation/go-oagis/pkg/delivery"
	"github.com/sirosfoundation/go-oagis/pkg/errlist"
)

// fakeRenderer records the data it was handed and returns canned text.
type fakeRenderer struct {
	templateID string
	data       *TemplateData
	text       string
	err        error
}

func (r *fakeRenderer) Render(_ context.Context, templateID string, data *TemplateData) (string, error) {
	r.templateID = templateID
	r.data = data
	if r.err != nil {
		return "", r.err
	}
	return r.text, nil
}

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closeBuffer) Close() error {
	b.closed = true
	return nil
}

func newTestSender(t *testing.T, store storage.Store, renderer Renderer, opts Options) *Sender {
	t.Helper()
	channel, err := delivery.NewChannel(delivery.Config{})
	require.NoError(t, err)
	return NewSender(store, renderer, channel, opts)
}

func findOutbound(t *testing.T, store storage.Store, referenceID string) *storage.MessageRecord {
	t.Helper()
	rec, err := store.FindMessage(context.Background(), storage.MessageKey{
		LogicalID:   "ACME-ERP",
		Component:   ComponentException,
		Task:        TaskReceipt,
		ReferenceID: referenceID,
	})
	require.NoError(t, err)
	return rec
}

func TestSend_Success(t *testing.T) {
	store := memory.NewStore()
	renderer := &fakeRenderer{text: "<CONFIRM_BOD_004/>"}
	s := newTestSender(t, store, renderer, Options{
		LogicalID:  "ACME-ERP",
		AuthID:     "ACME",
		TemplateID: "ConfirmBod",
	})

	out := &closeBuffer{}
	referenceID, err := s.Send(context.Background(), &Request{
		ErrorLogicalID:   "PARTNER",
		ErrorComponent:   "INVENTORY",
		ErrorTask:        "SYNC",
		ErrorReferenceID: "M-2002",
		OrigRef:          "ORD-77",
		Errors: []errlist.Entry{
			{Description: "bad quantity", ReasonCode: errlist.ReasonValidation},
		},
		Output: out,
	})
	require.NoError(t, err)
	require.NotEmpty(t, referenceID)

	assert.Equal(t, "<CONFIRM_BOD_004/>", out.String())
	assert.True(t, out.closed)

	rec := findOutbound(t, store, referenceID)
	assert.Equal(t, storage.StatusSent, rec.Status)
	assert.Equal(t, storage.DirectionOutgoing, rec.Direction)
	assert.Equal(t, "0", rec.Confirmation)
	assert.Equal(t, BSRVerb, rec.BSRVerb)
	assert.Equal(t, BSRNoun, rec.BSRNoun)
	assert.Equal(t, BSRRevision, rec.BSRRevision)
	assert.Equal(t, "ORD-77", rec.OriginalRef)
	assert.Empty(t, rec.FullMessage)

	// The renderer saw the assembled template data.
	assert.Equal(t, "ConfirmBod", renderer.templateID)
	require.NotNil(t, renderer.data)
	assert.Equal(t, "ACME-ERP", renderer.data.LogicalID)
	assert.Equal(t, referenceID, renderer.data.ReferenceID)
	assert.Equal(t, "M-2002", renderer.data.ErrorReferenceID)
	assert.NotEmpty(t, renderer.data.SentDate)
	require.Len(t, renderer.data.Errors, 1)
	assert.Equal(t, "bad quantity", renderer.data.Errors[0].Description)
}

func TestSend_RenderFailureStopsBeforeDelivery(t *testing.T) {
	store := memory.NewStore()
	renderer := &fakeRenderer{err: errors.New("template missing")}
	s := newTestSender(t, store, renderer, Options{LogicalID: "ACME-ERP"})

	out := &closeBuffer{}
	referenceID, err := s.Send(context.Background(), &Request{
		ErrorReferenceID: "M-2002",
		Output:           out,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template missing")

	// Nothing was delivered, and the record stayed at its triggered state.
	assert.Zero(t, out.Len())
	assert.False(t, out.closed)
	rec := findOutbound(t, store, referenceID)
	assert.Equal(t, storage.StatusTriggered, rec.Status)
}

func TestSend_DeliveryFailureLeavesGenerated(t *testing.T) {
	store := memory.NewStore()
	renderer := &fakeRenderer{text: "<CONFIRM_BOD_004/>"}
	s := newTestSender(t, store, renderer, Options{LogicalID: "ACME-ERP"})

	// No output, directory, or URL anywhere: the channel refuses the send.
	referenceID, err := s.Send(context.Background(), &Request{ErrorReferenceID: "M-2002"})
	require.Error(t, err)
	assert.ErrorIs(t, err, delivery.ErrNoDestination)

	rec := findOutbound(t, store, referenceID)
	assert.Equal(t, storage.StatusGenerated, rec.Status)
}

func TestSend_CaptureRetainsRenderedText(t *testing.T) {
	store := memory.NewStore()
	renderer := &fakeRenderer{text: "<CONFIRM_BOD_004/>"}
	s := newTestSender(t, store, renderer, Options{
		LogicalID:       "ACME-ERP",
		CaptureOutbound: true,
	})

	referenceID, err := s.Send(context.Background(), &Request{
		ErrorReferenceID: "M-2002",
		Output:           &closeBuffer{},
	})
	require.NoError(t, err)

	rec := findOutbound(t, store, referenceID)
	assert.Equal(t, "<CONFIRM_BOD_004/>", rec.FullMessage)
}

func TestSend_FileTargetUsesFilenameBase(t *testing.T) {
	store := memory.NewStore()
	renderer := &fakeRenderer{text: "<CONFIRM_BOD_004/>"}
	dir := t.TempDir()
	s := newTestSender(t, store, renderer, Options{
		LogicalID:              "ACME-ERP",
		DefaultSaveToDirectory: dir,
		SaveToFilenameBase:     "out-",
	})

	_, err := s.Send(context.Background(), &Request{ErrorReferenceID: "M-2002"})
	require.NoError(t, err)

	text, err := os.ReadFile(filepath.Join(dir, "out-ConfirmBodM-2002.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<CONFIRM_BOD_004/>", string(text))
}

func TestSend_RequestTargetOverridesDefaults(t *testing.T) {
	store := memory.NewStore()
	renderer := &fakeRenderer{text: "<CONFIRM_BOD_004/>"}
	dir := t.TempDir()
	s := newTestSender(t, store, renderer, Options{
		LogicalID:              "ACME-ERP",
		DefaultSaveToDirectory: dir,
		SaveToFilenameBase:     "default-",
	})

	_, err := s.Send(context.Background(), &Request{
		ErrorReferenceID: "M-2002",
		SaveToFilename:   "override.xml",
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "override.xml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "default-ConfirmBodM-2002.xml"))
	assert.True(t, os.IsNotExist(err))
}

func TestSend_ReferenceIDsAreUnique(t *testing.T) {
	store := memory.NewStore()
	renderer := &fakeRenderer{text: "<CONFIRM_BOD_004/>"}
	s := newTestSender(t, store, renderer, Options{LogicalID: "ACME-ERP"})

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		referenceID, err := s.Send(context.Background(), &Request{
			ErrorReferenceID: "M-2002",
			Output:           &closeBuffer{},
		})
		require.NoError(t, err)
		require.False(t, seen[referenceID], "reference id %s repeated", referenceID)
		seen[referenceID] = true
	}
}

func TestSend_RetryAfterDeliveryFailure(t *testing.T) {
	store := memory.NewStore()
	renderer := &fakeRenderer{text: "<CONFIRM_BOD_004/>"}
	s := newTestSender(t, store, renderer, Options{LogicalID: "ACME-ERP"})

	// First attempt has no destination and fails after rendering.
	_, err := s.Send(context.Background(), &Request{ErrorReferenceID: "M-2002"})
	require.Error(t, err)

	// A retry with a destination is a fresh send and succeeds.
	out := &closeBuffer{}
	referenceID, err := s.Send(context.Background(), &Request{
		ErrorReferenceID: "M-2002",
		Output:           out,
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out.String(), "CONFIRM_BOD"))
	rec := findOutbound(t, store, referenceID)
	assert.Equal(t, storage.StatusSent, rec.Status)
}
