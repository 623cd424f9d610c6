package ticketing

import (
	"bytes"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/pkg/bufferpool"
	"github.com/zeebo/blake3"
)

// eventsDomainKey is the BLAKE3 key for event hashes. It is distinct from
// the operation signing domain so the two digest spaces cannot collide.
var eventsDomainKey = [32]byte{
	'g', 'a', 't', 'e', 'p', 'a', 's', 's', '.',
	'e', 'v', 'e', 'n', 't', 's',
}

// hashEvents commits to the ordered protocol events of one operation. Events
// must already be stamped with their sequence, index and timestamp. An
// operation with no events (a rejection, or an applied no-op) still hashes
// deterministically, so every journal entry extends the cumulative chain.
func hashEvents(events []*entity.ProtocolEvent) (common.Hash, error) {
	buf := bufferpool.Get()
	defer buf.Release()
	buf.WriteString("events:v" + strconv.Itoa(EventHashVersion) + ":")
	for _, event := range events {
		writeProtocolEvent(buf.Buffer, event)
	}
	return hashEventPayload(buf.Bytes())
}

// chainReceiptHash folds an operation's events hash onto the previous
// cumulative hash. prev is common.ZeroHash for the first journal entry, in
// which case the chain starts at the events hash itself.
func chainReceiptHash(prev common.Hash, eventsHash common.Hash) (common.Hash, error) {
	if prev.IsZero() {
		return eventsHash, nil
	}
	return hashEventPayload([]byte(prev.String() + eventsHash.String()))
}

func hashEventPayload(payload []byte) (common.Hash, error) {
	hasher, err := blake3.NewKeyed(eventsDomainKey[:])
	if err != nil {
		return common.ZeroHash, errors.Wrap(err, "failed to create keyed hasher")
	}
	_, _ = hasher.Write(payload)
	var digest common.Hash
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

func writeProtocolEvent(buf *bytes.Buffer, event *entity.ProtocolEvent) {
	buf.WriteString("protocolEvent:")
	buf.WriteString("sequence:" + strconv.FormatUint(event.Sequence, 10))
	buf.WriteString("index:" + strconv.FormatUint(uint64(event.Index), 10))
	buf.WriteString("kind:" + string(event.Kind))
	buf.WriteString("eventId:" + strconv.FormatUint(event.EventID, 10))
	buf.WriteString("tierId:" + strconv.FormatUint(uint64(event.TierID), 10))
	buf.WriteString("address:" + event.Address.String())
	buf.WriteString("amount:" + event.Amount.String())
	buf.WriteString("price:" + strconv.FormatUint(event.Price, 10))
	buf.WriteString("serial:" + strconv.FormatUint(event.Serial, 10))
	buf.WriteString("percentage:" + strconv.FormatUint(event.Percentage, 10))
	buf.WriteString("timestamp:" + strconv.FormatInt(event.Timestamp.Unix(), 10))
	buf.WriteString(";")
}
