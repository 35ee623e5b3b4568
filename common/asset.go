package common

import (
	"encoding/json"
	"fmt"

	"github.com/vulpemventures/go-elements/elementsutil"
)

// AssetID is a 32-byte Elements asset identifier kept in internal byte order.
// Its string form is the reversed (display) hex, as shown by explorers.
type AssetID [32]byte

func ParseAssetID(str string) (AssetID, error) {
	var id AssetID
	if len(str) != 64 {
		return id, fmt.Errorf("invalid asset id length, expected 64 hex chars got %d", len(str))
	}

	buf, err := elementsutil.AssetHashToBytes(str)
	if err != nil {
		return id, fmt.Errorf("invalid asset id: %s", err)
	}
	// first byte is the explicit asset prefix
	copy(id[:], buf[1:])
	return id, nil
}

func (a AssetID) String() string {
	return elementsutil.AssetHashFromBytes(a.Explicit())
}

// Explicit returns the 33-byte explicit asset encoding used in tx outputs.
func (a AssetID) Explicit() []byte {
	return append([]byte{0x01}, a[:]...)
}

func (a AssetID) IsZero() bool {
	return a == AssetID{}
}

func (a AssetID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AssetID) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	id, err := ParseAssetID(str)
	if err != nil {
		return err
	}
	*a = id
	return nil
}
