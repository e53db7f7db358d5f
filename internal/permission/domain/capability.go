package domain

import (
	"encoding/json"
	"strings"
)

// Policy grants rights on every data type matching DataType. The pattern is "*", an exact
// name, or a prefix ending in "*".
type Policy struct {
	DataType string        `json:"data_type"`
	Rights   []RequestType `json:"rights"`
}

// Matches reports whether the policy pattern covers dataType.
func (p Policy) Matches(dataType string) bool {
	switch {
	case p.DataType == "*":
		return true
	case strings.HasSuffix(p.DataType, "*"):
		return strings.HasPrefix(dataType, strings.TrimSuffix(p.DataType, "*"))
	default:
		return p.DataType == dataType
	}
}

// Capabilities are the standing rights of a principal.
type Capabilities struct {
	Policies []Policy
}

// Allows reports whether any policy gives blanket right on dataType.
func (c Capabilities) Allows(dataType string, right RequestType) bool {
	for _, policy := range c.Policies {
		if !policy.Matches(dataType) {
			continue
		}
		for _, r := range policy.Rights {
			if r == right {
				return true
			}
		}
	}
	return false
}

// PolicyDocument maps principal ids to their policies. The "*" entry applies to everyone.
type PolicyDocument map[string][]Policy

// ParsePolicyDocument decodes and validates a JSON policy document. Empty input yields an
// empty document.
//
//	{"alice": [{"data_type": "invoice*", "rights": ["edit", "delete"]}]}
func ParsePolicyDocument(data []byte) (PolicyDocument, error) {
	doc := PolicyDocument{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrInvalidPolicy
	}
	for _, policies := range doc {
		for _, policy := range policies {
			if policy.DataType == "" {
				return nil, ErrInvalidPolicy
			}
			for _, right := range policy.Rights {
				if !right.Valid() {
					return nil, ErrInvalidPolicy
				}
			}
		}
	}
	return doc, nil
}
