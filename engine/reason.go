package engine

// Reason classifies the outcome of a connect, subscribe or publish
// decision. Connect rejections map to protocol-level reason codes by the
// broker adapter; subscribe/publish reasons only show up in logs and
// audit records.
type Reason int

const (
	ReasonAccepted Reason = iota
	ReasonBadCredentials
	ReasonClientIDNotValid
	ReasonDuplicateClientID
	ReasonDirectoryUnavailable
	ReasonRuleStoreUnavailable
	ReasonUnknownSession
	ReasonNotAuthorized
	ReasonQuotaExceeded
	ReasonQuotaOverflow
	ReasonInternalError
)

func (r Reason) String() string {
	switch r {
	case ReasonAccepted:
		return "accepted"
	case ReasonBadCredentials:
		return "bad credentials"
	case ReasonClientIDNotValid:
		return "client identifier not valid"
	case ReasonDuplicateClientID:
		return "duplicate client identifier"
	case ReasonDirectoryUnavailable:
		return "directory unavailable"
	case ReasonRuleStoreUnavailable:
		return "rule store unavailable"
	case ReasonUnknownSession:
		return "unknown session"
	case ReasonNotAuthorized:
		return "not authorized"
	case ReasonQuotaExceeded:
		return "quota exceeded"
	case ReasonQuotaOverflow:
		return "quota overflow"
	case ReasonInternalError:
		return "internal error"
	default:
		return "unknown"
	}
}

// ConnectDecision is the terminal outcome of one connection attempt.
type ConnectDecision struct {
	Reason Reason
}

func (d ConnectDecision) Accepted() bool {
	return d.Reason == ReasonAccepted
}

func accept() ConnectDecision {
	return ConnectDecision{Reason: ReasonAccepted}
}

func reject(r Reason) ConnectDecision {
	return ConnectDecision{Reason: r}
}
