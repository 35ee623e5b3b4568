package application

import "encoding/hex"

func cmrHex(cmr [32]byte) string {
	return hex.EncodeToString(cmr[:])
}
