package transfer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ruteri/docvault/interfaces"
)

// Encode serializes bundle to its single-string transfer form.
func Encode(bundle *interfaces.TransferBundle) (string, error) {
	if err := bundle.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("failed to encode bundle: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode parses the output of Encode. Plain bundle JSON, as written by an
// export to file, is accepted too.
func Decode(text string) (*interfaces.TransferBundle, error) {
	text = strings.TrimSpace(text)

	data := []byte(text)
	if !strings.HasPrefix(text, "{") {
		var err error
		data, err = base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidBundle, err)
		}
	}

	var bundle interfaces.TransferBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidBundle, err)
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// Parse accepts whatever a receiver captured: a single clipboard payload or a
// set of chunks separated by whitespace, in any order and with repeats.
func Parse(text string) (*interfaces.TransferBundle, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, interfaces.ErrInvalidBundle
	}
	if !IsChunk(fields[0]) {
		return Decode(text)
	}

	a := NewAssembler()
	for _, field := range fields {
		if _, err := a.Add(field); err != nil {
			return nil, err
		}
	}
	encoded, err := a.Assemble()
	if err != nil {
		return nil, err
	}
	return Decode(encoded)
}
