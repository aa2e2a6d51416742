package auth

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"auction-ledger/internal/models"
)

var walletPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// ValidWalletAddress reports whether addr is a lowercase-normalizable hex
// wallet address.
func ValidWalletAddress(addr string) bool {
	return walletPattern.MatchString(models.NormalizeWallet(addr))
}

// VerifyWalletSignature checks that sigHex is a personal-sign signature of
// message produced by the key behind walletAddress. The signature is the
// usual 65-byte [R || S || V] layout, hex encoded.
func VerifyWalletSignature(walletAddress, message, sigHex string) error {
	wallet := models.NormalizeWallet(walletAddress)
	if !walletPattern.MatchString(wallet) {
		return fmt.Errorf("invalid wallet address %q", walletAddress)
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != 65 {
		return fmt.Errorf("invalid signature length %d, want 65", len(sig))
	}

	// RecoverCompact wants the recovery header first; wallets put V last.
	v := sig[64]
	if v < 27 {
		v += 27
	}
	compact := make([]byte, 65)
	compact[0] = v
	copy(compact[1:], sig[:64])

	pubKey, _, err := btcecdsa.RecoverCompact(compact, personalSignDigest(message))
	if err != nil {
		return fmt.Errorf("failed to recover public key: %w", err)
	}

	if PubKeyToWallet(pubKey) != wallet {
		return fmt.Errorf("signature does not match wallet %s", wallet)
	}

	return nil
}

// personalSignDigest hashes a message the way wallet personal-sign does,
// prefixing it so signed login messages can never double as transactions.
func personalSignDigest(message string) []byte {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return h.Sum(nil)
}

// PubKeyToWallet derives the lowercase hex wallet address for a public key:
// the last 20 bytes of the keccak256 of the uncompressed key body.
func PubKeyToWallet(pubKey *btcec.PublicKey) string {
	uncompressed := pubKey.SerializeUncompressed()
	h := sha3.NewLegacyKeccak256()
	h.Write(uncompressed[1:])
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[12:])
}
