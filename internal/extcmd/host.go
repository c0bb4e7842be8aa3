package extcmd

// EditCommitter applies a session's edits to the live document.
//
// Commit is called at most once per session, with every edit of the session
// sorted by region start, descending. It must apply all of them as one undo
// step or none of them.
type EditCommitter interface {
	Commit(mode Mode, edits []PendingEdit) error
}

// Document is the host's handle on a buffer shown in a view.
type Document interface {
	EditCommitter

	// BufferID identifies the buffer. Sessions are keyed by it.
	BufferID() string
	// ViewID identifies the view the command was invoked from.
	ViewID() string

	// Text returns the text of r.
	Text(r Range) string
	// Len returns the buffer length in bytes.
	Len() ByteOffset
	// FullLine widens r to cover whole lines, including the final newline.
	FullLine(r Range) Range
	// Selections returns the view's selections in document order.
	Selections() []Range
	// ReadOnly reports whether the document refuses edits.
	ReadOnly() bool
	// Dir is the working directory for commands, or empty.
	Dir() string
}

// StatusReporter shows transient status text in the view.
type StatusReporter interface {
	SetStatus(key, text string)
	EraseStatus(key string)
}

// ErrorPanel shows failure messages to the user.
type ErrorPanel interface {
	ShowErrors(panel string, messages []string)
}

// Status and panel names.
const (
	StatusKey       = "external_command"
	ErrorPanelName  = "external_command_errors"
	CancelLabel     = "Cancel External Command"
	UndoDescription = "External Command"
)

type nopStatus struct{}

func (nopStatus) SetStatus(string, string) {}
func (nopStatus) EraseStatus(string)       {}

type nopPanel struct{}

func (nopPanel) ShowErrors(string, []string) {}
