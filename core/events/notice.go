package events

// KindNotice identifies a user-facing notice.
const KindNotice Kind = "session.notice"

// KindConnectivityChanged identifies a connectivity transition.
const KindConnectivityChanged Kind = "session.connectivity_changed"

type NoticeLevel string

const (
	NoticeLevelInfo    NoticeLevel = "info"
	NoticeLevelWarning NoticeLevel = "warning"
	NoticeLevelError   NoticeLevel = "error"
)

type NoticeCode string

const (
	NoticeRetrying            NoticeCode = "retrying"
	NoticeOffline             NoticeCode = "offline"
	NoticeRetriesExhausted    NoticeCode = "retries_exhausted"
	NoticeConnectionRestored  NoticeCode = "connection_restored"
	NoticeConnectionLost      NoticeCode = "connection_lost"
	NoticeRecognitionFailed   NoticeCode = "recognition_failed"
	NoticeRecognitionMissing  NoticeCode = "recognition_unsupported"
	NoticeListenWhileOffline  NoticeCode = "listen_offline"
	NoticeResponseUnavailable NoticeCode = "response_unavailable"
)

// Notice is a message meant for the user that is not part of the
// conversation log.
type Notice struct {
	Base
	Level NoticeLevel
	Code  NoticeCode
	Text  string
}

// NewNotice creates a notice event.
func NewNotice(level NoticeLevel, code NoticeCode, text string) Notice {
	return Notice{Base: NewBase(KindNotice), Level: level, Code: code, Text: text}
}

// ConnectivityChanged reports that the host went online or offline.
type ConnectivityChanged struct {
	Base
	Online bool
}

// NewConnectivityChanged creates a connectivity changed event.
func NewConnectivityChanged(online bool) ConnectivityChanged {
	return ConnectivityChanged{Base: NewBase(KindConnectivityChanged), Online: online}
}
