package service

import (
	"crypto/rand"
	"math/big"
)

// codeAlphabet omits 0/O/1/I to keep codes unambiguous when read over
// the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const trackingCodeLen = 4

// maxCodeAttempts bounds collision retries before giving up. With a
// 32^4 space this only trips when the table is nearly saturated.
const maxCodeAttempts = 25

func randomTrackingCode() (string, error) {
	buf := make([]byte, trackingCodeLen)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
