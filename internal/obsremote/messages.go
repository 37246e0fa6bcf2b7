package obsremote

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/goccy/go-json"
)

// obs-websocket v5 opcodes. Only the handshake and request/response subset
// is spoken here; events (op 5) are tolerated and discarded.
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opEvent           = 5
	opRequest         = 6
	opRequestResponse = 7
)

// rpcVersion is the obs-websocket RPC version this client negotiates.
const rpcVersion = 1

// envelope is the outer frame of every obs-websocket message.
type envelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type helloAuth struct {
	Challenge string `json:"challenge"`
	Salt      string `json:"salt"`
}

// helloData is the server greeting. Authentication is present only when the
// server requires a password.
type helloData struct {
	OBSWebSocketVersion string     `json:"obsWebSocketVersion"`
	RPCVersion          int        `json:"rpcVersion"`
	Authentication      *helloAuth `json:"authentication,omitempty"`
}

type identifyData struct {
	RPCVersion     int    `json:"rpcVersion"`
	Authentication string `json:"authentication,omitempty"`
}

type identifiedData struct {
	NegotiatedRPCVersion int `json:"negotiatedRpcVersion"`
}

type requestData struct {
	RequestType string          `json:"requestType"`
	RequestID   string          `json:"requestId"`
	RequestData json.RawMessage `json:"requestData,omitempty"`
}

type requestStatus struct {
	Result  bool   `json:"result"`
	Code    int    `json:"code"`
	Comment string `json:"comment,omitempty"`
}

type responseData struct {
	RequestType   string          `json:"requestType"`
	RequestID     string          `json:"requestId"`
	RequestStatus requestStatus   `json:"requestStatus"`
	ResponseData  json.RawMessage `json:"responseData,omitempty"`
}

// marshalEnvelope frames d under the given opcode.
func marshalEnvelope(op int, d any) ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Op: op, D: raw})
}

// authToken derives the Identify authentication string from the password and
// the challenge/salt pair announced in Hello:
//
//	base64(sha256(base64(sha256(password + salt)) + challenge))
func authToken(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	encoded := base64.StdEncoding.EncodeToString(secret[:])
	token := sha256.Sum256([]byte(encoded + challenge))
	return base64.StdEncoding.EncodeToString(token[:])
}
