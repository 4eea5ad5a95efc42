package signature

import (
	"encoding/base64"
	"fmt"
)

// CanonicalMessage builds the ADR-36 style sign-doc the wallet signs for
// arbitrary data. It is a pure function of (signer, data): the payload is
// base64-encoded and embedded in a fixed JSON template, so verifier and
// signer can reproduce the exact bytes independently. Any drift in this
// encoding breaks every existing signature.
func CanonicalMessage(signer string, data []byte) []byte {
	return fmt.Appendf(nil,
		`{"account_number":"0","chain_id":"","fee":{"amount":[],"gas":"0"},`+
			`"memo":"","msgs":[{"type":"sign/MsgSignData","value":{"data":"%s",`+
			`"signer":"%s"}}],"sequence":"0"}`,
		base64.StdEncoding.EncodeToString(data), signer)
}
