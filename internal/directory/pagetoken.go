package directory

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

type pageToken struct {
	Offset int    `json:"o"`
	Scope  string `json:"s"`
}

func encodePageToken(scope string, offset int) (string, error) {
	data, err := json.Marshal(pageToken{Offset: offset, Scope: scope})
	if err != nil {
		return "", errors.Wrap(err, "marshal page token")
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// decodePageToken returns offset 0 for an empty token. Tokens minted for
// another collection are rejected.
func decodePageToken(scope, token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, Domainf("invalid page token")
	}
	var t pageToken
	if err := json.Unmarshal(data, &t); err != nil {
		return 0, Domainf("invalid page token")
	}
	if t.Scope != scope || t.Offset < 0 {
		return 0, Domainf("page token does not belong to this list")
	}
	return t.Offset, nil
}

func paginate[T any](scope string, all []T, token string, limit int) (items []T, next string, hasMore bool, err error) {
	offset, err := decodePageToken(scope, token)
	if err != nil {
		return nil, "", false, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	items = append([]T(nil), all[offset:end]...)
	if end < len(all) {
		next, err = encodePageToken(scope, end)
		if err != nil {
			return nil, "", false, err
		}
		hasMore = true
	}
	return items, next, hasMore, nil
}
