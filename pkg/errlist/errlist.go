package errlist

import "fmt"

// Reason codes carried on error entries. The Java-style names are wire
// constants seen by trading partners in Confirm BOD documents and are kept
// verbatim for interoperability.
const (
	// ReasonParse tags a timestamp that could not be parsed in either
	// the offset or no-offset ISO format.
	ReasonParse = "ParseException"
	// ReasonXMLSyntax tags a message body that is not well-formed XML.
	ReasonXMLSyntax = "SAXException"
	// ReasonIO tags an I/O failure while reading a message body.
	ReasonIO = "IOException"
	// ReasonParserConfiguration tags an XML parser setup failure.
	ReasonParserConfiguration = "ParserConfigurationException"
	// ReasonService tags a failed business handler or service invocation.
	ReasonService = "GenericServiceException"
	// ReasonEntity tags a message record store failure.
	ReasonEntity = "GenericEntityException"
	// ReasonCreateErrorInfo tags a failed MessageErrorRecord insert.
	ReasonCreateErrorInfo = "CreateOagisMessageErrorInfoServiceError"
	// ReasonOriginalNotFound tags a Confirm BOD whose data area references
	// a message this system never sent.
	ReasonOriginalNotFound = "OriginalOagisMessageInfoNotFoundError"

	// ReasonValidation tags a missing required field or an unroutable
	// verb/noun combination.
	ReasonValidation = "ValidationError"
	// ReasonDuplicate tags a second receipt of an already-seen message key.
	ReasonDuplicate = "DuplicateError"
	// ReasonDelivery tags a stream, filesystem, or transport send failure.
	ReasonDelivery = "DeliveryError"
	// ReasonConfiguration tags a send with no destination supplied.
	ReasonConfiguration = "ConfigurationError"
)

// Entry is one tagged processing error. Entries are transient: they travel
// in results and become persisted MessageErrorRecords only when a Confirm
// BOD reports them against a stored message.
type Entry struct {
	Description string `json:"description"`
	ReasonCode  string `json:"reasonCode"`
}

// List accumulates entries in order of occurrence.
type List []Entry

// Add appends an entry built from a reason code and description.
func (l *List) Add(reasonCode, description string) {
	*l = append(*l, Entry{Description: description, ReasonCode: reasonCode})
}

// Addf appends an entry with a formatted description.
func (l *List) Addf(reasonCode, format string, args ...any) {
	l.Add(reasonCode, fmt.Sprintf(format, args...))
}

// Merge appends all entries of other after the existing entries.
func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

// Empty reports whether no errors have accumulated.
func (l List) Empty() bool {
	return len(l) == 0
}
