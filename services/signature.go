package services

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// GenerateSignature produces the audit token stored next to every workflow
// action: the first 32 hex characters of SHA-256 over actor, document, action
// and the current UTC timestamp. It is a traceability token, not a
// cryptographic signature.
func GenerateSignature(userID, documentID int, actionType string) string {
	data := fmt.Sprintf("%d-%d-%s-%s", userID, documentID, actionType, time.Now().UTC().Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)[:32]
}
