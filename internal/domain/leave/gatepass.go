package leave

import "time"

// GatePass is the artifact handed back on approval: the canonical text
// payload, its rendered QR image, and the suggested download filename.
type GatePass struct {
	RequestID string `json:"requestId"`
	Payload   string `json:"payload"`
	PNG       []byte `json:"-"`
	Filename  string `json:"filename"`
}

// PassIssuer builds the gate pass for a granted request. Issue must be
// deterministic given the record and the approval instant.
type PassIssuer interface {
	Issue(req Request, now time.Time) (GatePass, error)
}
