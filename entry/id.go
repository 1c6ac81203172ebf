package entry

import (
	"encoding/base64"
	"errors"
	"strings"
)

const tokenSeparator = "::"

var (
	// ErrInvalidToken is returned when a token cannot be decoded into an ID.
	ErrInvalidToken = errors.New("invalid entry token")

	// ErrInvalidID is returned when an ID lacks its document id or its type.
	ErrInvalidID = errors.New("entry id and type must not be empty")
)

// ID identifies one entry of one entry type.
type ID struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// NewID returns the ID of document id within entryType.
func NewID(entryType, id string) ID {
	return ID{ID: id, Type: entryType}
}

// IsZero reports whether both parts of the ID are empty.
func (id ID) IsZero() bool {
	return id.ID == "" && id.Type == ""
}

// Validate checks that both parts of the ID are set.
func (id ID) Validate() error {
	if id.ID == "" || id.Type == "" {
		return ErrInvalidID
	}

	return nil
}

// String renders the ID as "type:id" for logs.
func (id ID) String() string {
	return id.Type + ":" + id.ID
}

// Token returns the opaque, URL safe token of the ID.
func (id ID) Token() string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.ID + tokenSeparator + id.Type))
}

// ParseToken decodes a token produced by ID.Token.
// Padded tokens and tokens in the standard base64 alphabet are accepted as well.
func ParseToken(token string) (ID, error) {
	normalized := strings.TrimRight(token, "=")
	normalized = strings.NewReplacer("+", "-", "/", "_").Replace(normalized)

	raw, err := base64.RawURLEncoding.DecodeString(normalized)
	if err != nil {
		return ID{}, errors.Join(ErrInvalidToken, err)
	}

	decoded := string(raw)
	sep := strings.LastIndex(decoded, tokenSeparator)
	if sep < 0 {
		return ID{}, ErrInvalidToken
	}

	id := ID{ID: decoded[:sep], Type: decoded[sep+len(tokenSeparator):]}
	if err := id.Validate(); err != nil {
		return ID{}, errors.Join(ErrInvalidToken, err)
	}

	return id, nil
}
