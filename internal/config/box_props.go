package config

import (
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"lukechampine.com/blake3"

	"github.com/functionland/fula-gateway/internal/gwlog"
)

// boxProperties is the pairing-properties document an external pairing
// daemon writes to disk.
type boxProperties struct {
	AutoPinPairingSecret string `json:"auto_pin_pairing_secret"`
	AutoPinToken         string `json:"auto_pin_token"`
}

// LoadBoxProperties reads and parses path, returning the bearer secret
// and owner id it carries. Any failure — missing file, malformed JSON,
// malformed JWT, or a JWT with no usable subject claim — is logged as
// a warning through log and otherwise swallowed; this path must never
// be fatal to startup. A missing file or malformed JSON yields two
// empty strings; a bad or subject-less token yields an empty owner id
// only, and the pairing secret from the same file is still returned.
func LoadBoxProperties(log gwlog.Logger, path string) (bearerSecret, ownerID string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.WithField("path", path).WithField("error", err.Error()).Print(gwlog.LevelWarn, "box properties: failed to read file")
		return "", ""
	}

	var props boxProperties
	if err := json.Unmarshal(data, &props); err != nil {
		log.WithField("path", path).WithField("error", err.Error()).Print(gwlog.LevelWarn, "box properties: failed to parse JSON")
		return "", ""
	}

	if props.AutoPinPairingSecret != "" {
		bearerSecret = props.AutoPinPairingSecret
	}

	if props.AutoPinToken != "" {
		sub, err := subjectFromToken(props.AutoPinToken)
		if err != nil {
			log.WithField("error", err.Error()).Print(gwlog.LevelWarn, "box properties: failed to parse auto-pin token")
		} else if sub == "" {
			log.Print(gwlog.LevelWarn, "box properties: auto-pin token carries no subject claim")
		} else {
			ownerID = HashUserID(sub)
		}
	}

	return bearerSecret, ownerID
}

// subjectFromToken extracts the "sub" claim from a JWT without
// verifying its signature — the gateway trusts the pairing daemon that
// wrote the file, not the token's issuer.
func subjectFromToken(token string) (string, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", err
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}

// userIDHashDomain prefixes every hashed user id, keeping this hash
// space distinct from any other BLAKE3 use in the gateway (block CIDs,
// multipart ETags).
const userIDHashDomain = "fula:user_id:"

// HashUserID derives the gateway's internal hashed user id from a
// subject string: BLAKE3(domain || userID), truncated to 16 bytes and
// hex-encoded.
func HashUserID(userID string) string {
	sum := blake3.Sum256([]byte(userIDHashDomain + userID))
	return hex.EncodeToString(sum[:16])
}
