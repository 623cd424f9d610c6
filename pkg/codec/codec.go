package codec

import (
	"reflect"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/fxamacker/cbor/v2"
)

// encMode encodes with Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items. Operation
// digests are computed over these bytes, so the same logical payload must
// always encode identically.
var encMode = utils.Must(cbor.CoreDetEncOptions().EncMode())

// decMode accepts standard CBOR. Unknown fields are ignored so old nodes can
// decode envelopes produced by newer clients.
var decMode = utils.Must(cbor.DecOptions{
	DefaultMapType: reflect.TypeOf(map[string]any(nil)),
}.DecMode())

// Marshal encodes v to canonical CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
