package envelope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// ErrMalformed is returned when a message body cannot be parsed as XML or
// is missing its control area. A malformed envelope aborts processing of
// that message entirely.
var ErrMalformed = errors.New("malformed OAGIS envelope")

// Ref identifies one exchanged message by its composite key.
type Ref struct {
	LogicalID   string
	Component   string
	Task        string
	ReferenceID string
}

// Sender is the control-area SENDER block.
type Sender struct {
	Ref
	Confirmation string
	AuthID       string
}

// BSR is the business-service-request block identifying the document.
type BSR struct {
	Verb     string
	Noun     string
	Revision string
}

// Is reports whether the BSR matches a verb/noun pair, ignoring case.
func (b BSR) Is(verb, noun string) bool {
	return strings.EqualFold(b.Verb, verb) && strings.EqualFold(b.Noun, noun)
}

// ConfirmMessage is one CONFIRMMSG entry in a Confirm BOD data area.
type ConfirmMessage struct {
	Description string
	ReasonCode  string
}

// ConfirmBOD is the data-area block of a CONFIRM/BOD envelope. Original is
// the composite key of the message the confirmation reports on, taken from
// the data area's own control area, not the envelope sender.
type ConfirmBOD struct {
	Original Ref
	SentDate string
	OrigRef  string
	Messages []ConfirmMessage
}

// Envelope is the parsed control area of an OAGIS document plus a handle
// on the underlying XML for noun-specific extraction.
type Envelope struct {
	Sender   Sender
	BSR      BSR
	SentDate string
	Raw      []byte

	root *etree.Element
}

// Parse extracts the control area from a raw XML document. The returned
// envelope retains the document tree so handlers can extract data-area
// fields without reparsing.
func Parse(raw []byte) (*Envelope, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no document element", ErrMalformed)
	}

	ctrl := root.SelectElement("CNTROLAREA")
	if ctrl == nil {
		return nil, fmt.Errorf("%w: no CNTROLAREA element", ErrMalformed)
	}

	env := &Envelope{Raw: raw, root: root}
	if bsr := ctrl.SelectElement("BSR"); bsr != nil {
		env.BSR = BSR{
			Verb:     childText(bsr, "VERB"),
			Noun:     childText(bsr, "NOUN"),
			Revision: childText(bsr, "REVISION"),
		}
	}
	if sender := ctrl.SelectElement("SENDER"); sender != nil {
		env.Sender = parseSender(sender)
	}
	env.SentDate = childText(ctrl, "DATETIMEISO")

	return env, nil
}

// Root returns the document element for noun-specific data-area walks by
// external business handlers.
func (e *Envelope) Root() *etree.Element {
	return e.root
}

// ConfirmBOD extracts the DATAAREA/CONFIRM_BOD/CONFIRM block. It fails when
// the nesting expected of a CONFIRM/BOD envelope is absent.
func (e *Envelope) ConfirmBOD() (*ConfirmBOD, error) {
	confirm := descend(e.root, "DATAAREA", "CONFIRM_BOD", "CONFIRM")
	if confirm == nil {
		return nil, fmt.Errorf("%w: no DATAAREA/CONFIRM_BOD/CONFIRM element", ErrMalformed)
	}

	cb := &ConfirmBOD{OrigRef: childText(confirm, "ORIGREF")}
	if ctrl := confirm.SelectElement("CNTROLAREA"); ctrl != nil {
		if sender := ctrl.SelectElement("SENDER"); sender != nil {
			cb.Original = parseSender(sender).Ref
		}
		cb.SentDate = childText(ctrl, "DATETIMEISO")
	}
	for _, msg := range confirm.SelectElements("CONFIRMMSG") {
		cb.Messages = append(cb.Messages, ConfirmMessage{
			Description: childText(msg, "DESCRIPTN"),
			ReasonCode:  childText(msg, "REASONCODE"),
		})
	}
	return cb, nil
}

// AckDeliveryDocType returns the DOCTYPE of an ACKNOWLEDGE/DELIVERY
// envelope's document reference, used to tell PO acknowledgements from RMA
// acknowledgements. Returns "" when the element is absent.
func (e *Envelope) AckDeliveryDocType() string {
	docRef := descend(e.root, "DATAAREA", "ACKNOWLEDGE_DELIVERY", "RECEIPTLN", "DOCUMNTREF")
	if docRef == nil {
		return ""
	}
	return childText(docRef, "DOCTYPE")
}

func parseSender(sender *etree.Element) Sender {
	return Sender{
		Ref: Ref{
			LogicalID:   childText(sender, "LOGICALID"),
			Component:   childText(sender, "COMPONENT"),
			Task:        childText(sender, "TASK"),
			ReferenceID: childText(sender, "REFERENCEID"),
		},
		Confirmation: childText(sender, "CONFIRMATION"),
		AuthID:       childText(sender, "AUTHID"),
	}
}

func childText(e *etree.Element, tag string) string {
	child := e.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func descend(e *etree.Element, tags ...string) *etree.Element {
	for _, tag := range tags {
		if e == nil {
			return nil
		}
		e = e.SelectElement(tag)
	}
	return e
}
