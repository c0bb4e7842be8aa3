package event

// Editor topics.
const (
	// TopicBufferModified is published after any change to a buffer's text.
	TopicBufferModified Topic = "buffer.modified"

	// TopicSelectionChanged is published after a view's selections change.
	TopicSelectionChanged Topic = "selection.changed"

	// TopicViewClosed is published when a view is closed.
	TopicViewClosed Topic = "view.closed"

	// TopicConfigReloaded is published after the configuration file is reloaded.
	TopicConfigReloaded Topic = "config.reloaded"
)

// BufferModified is the payload of TopicBufferModified.
type BufferModified struct {
	BufferID string
	// ViewID is the view through which the change was made; empty for
	// changes that did not originate from a view.
	ViewID string
	// Revision is the buffer revision after the change.
	Revision uint64
}

// SelectionChanged is the payload of TopicSelectionChanged.
type SelectionChanged struct {
	BufferID string
	ViewID   string
}

// ViewClosed is the payload of TopicViewClosed.
type ViewClosed struct {
	BufferID string
	ViewID   string
}

// ConfigReloaded is the payload of TopicConfigReloaded.
type ConfigReloaded struct {
	Path string
}
