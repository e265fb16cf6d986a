package posts

// Notifier receives failures of repository operations so they can be shown
// to the user. Validation errors are not reported.
type Notifier interface {
	Notify(op string, err error)
}

// Operation names passed to Notifier
const (
	OpLoadAll    = "loadAll"
	OpCreate     = "create"
	OpToggleLike = "toggleLike"
	OpAddComment = "addComment"
	OpDelete     = "delete"
)
