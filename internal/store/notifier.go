package store

// NoticeKind classifies a user-facing notice
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a toast-style message for the user
type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
}

// Notifier receives user-facing notices from the store
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

// Notify calls f(n)
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
