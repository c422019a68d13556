package sessions

import "time"

// State is the position of a flow session in the authorization-code
// state machine. A successful login creates the session directly in
// StateCodeIssued (a failed login leaves no session behind); from there
// it moves to StateTokensIssued and finally StateVerified.
type State string

const (
	StateCodeIssued   State = "code_issued"
	StateTokensIssued State = "tokens_issued"
	StateVerified     State = "verified"
)

// FlowSession is the per-session server-side state of one
// authorization-code flow instance. Each concurrent client gets its own
// session; there is no process-wide flow state.
type FlowSession struct {
	ID        string
	State     State
	Username  string
	AuthCode  string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(sessionID string, session FlowSession) error
	Get(sessionID string) (FlowSession, error)
	GetByAuthCode(code string) (FlowSession, error)
	Delete(sessionID string) error
}
