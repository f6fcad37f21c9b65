package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// Checksum returns a SHA-256 digest of s that does not depend on map
// iteration order. Two peers holding equal states compute equal checksums.
func Checksum(s *state.GameState) (string, error) {
	if s == nil {
		return "", fmt.Errorf("cannot checksum a nil state")
	}
	hash := sha256.New()
	if _, err := hash.Write([]byte(deterministicRepresentation(s))); err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// VerifyChecksum reports whether s hashes to expected.
func VerifyChecksum(s *state.GameState, expected string) (bool, error) {
	computed, err := Checksum(s)
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed == expected, nil
}

// deterministicRepresentation renders s in a canonical text form. Player
// order is seat order, which is part of the state.
func deterministicRepresentation(s *state.GameState) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%d|%d|%s|%d\n",
		s.ID, s.Phase, s.Age, s.Turn, s.Direction, s.Version)

	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%s|%d|%d|%d|%d|%d|%d/%d|%d/%d\n",
			p.ID, p.WonderID, p.WonderSide,
			p.Coins, p.MilitaryShields, p.VictoryTokens, p.DefeatTokens, p.WonderStages,
			p.LeftTradeCost.Raw, p.LeftTradeCost.Manufactured,
			p.RightTradeCost.Raw, p.RightTradeCost.Manufactured,
		)
		// hand order is not meaningful, tableau order is
		fmt.Fprintf(&buf, "HAND:%s\n", strings.Join(sortedIDs(p.Hand), ","))
		fmt.Fprintf(&buf, "TABLEAU:%s\n", strings.Join(p.Tableau, ","))
		buf.WriteString("SCIENCE:")
		for _, sym := range cards.ScienceSymbols {
			fmt.Fprintf(&buf, "%s=%d;", sym, p.Science[sym])
		}
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, "DECK:%s\n", strings.Join(s.CurrentDeck, ","))
	fmt.Fprintf(&buf, "DISCARD:%s\n", strings.Join(s.DiscardPile, ","))
	return buf.String()
}

func sortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

// SerializeState encodes s with gob.
func SerializeState(s *state.GameState) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeState decodes a state written by SerializeState.
func DeserializeState(data []byte) (*state.GameState, error) {
	var s state.GameState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &s, nil
}

// ValidateSerializationRoundtrip checks that s survives encoding by
// comparing checksums before and after.
func ValidateSerializationRoundtrip(s *state.GameState) error {
	before, err := Checksum(s)
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}
	data, err := SerializeState(s)
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	decoded, err := DeserializeState(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	after, err := Checksum(decoded)
	if err != nil {
		return fmt.Errorf("failed to compute deserialized checksum: %w", err)
	}
	if before != after {
		return fmt.Errorf("checksum mismatch after roundtrip: %s != %s", before, after)
	}
	return nil
}
