package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Matches(t *testing.T) {
	assert.True(t, Policy{DataType: "*"}.Matches("anything"))
	assert.True(t, Policy{DataType: "invoice"}.Matches("invoice"))
	assert.False(t, Policy{DataType: "invoice"}.Matches("invoices"))
	assert.True(t, Policy{DataType: "invoice*"}.Matches("invoice_line"))
	assert.False(t, Policy{DataType: "invoice*"}.Matches("customer"))
}

func TestCapabilities_Allows(t *testing.T) {
	caps := Capabilities{Policies: []Policy{
		{DataType: "invoice*", Rights: []RequestType{RequestTypeEdit}},
		{DataType: "note", Rights: []RequestType{RequestTypeEdit, RequestTypeDelete}},
	}}

	assert.True(t, caps.Allows("invoice_line", RequestTypeEdit))
	assert.False(t, caps.Allows("invoice_line", RequestTypeDelete))
	assert.True(t, caps.Allows("note", RequestTypeDelete))
	assert.False(t, caps.Allows("customer", RequestTypeEdit))
	assert.False(t, Capabilities{}.Allows("note", RequestTypeEdit))
}

func TestParsePolicyDocument(t *testing.T) {
	t.Run("Success_Document", func(t *testing.T) {
		doc, err := ParsePolicyDocument([]byte(`{"admin":[{"data_type":"*","rights":["edit","delete"]}]}`))
		require.NoError(t, err)
		require.Len(t, doc["admin"], 1)
		assert.Equal(t, "*", doc["admin"][0].DataType)
	})

	t.Run("Success_Empty", func(t *testing.T) {
		doc, err := ParsePolicyDocument([]byte("  "))
		require.NoError(t, err)
		assert.Empty(t, doc)
	})

	t.Run("Error_Malformed", func(t *testing.T) {
		_, err := ParsePolicyDocument([]byte(`{"admin":`))
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})

	t.Run("Error_UnknownRight", func(t *testing.T) {
		_, err := ParsePolicyDocument([]byte(`{"admin":[{"data_type":"*","rights":["view"]}]}`))
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})

	t.Run("Error_MissingDataType", func(t *testing.T) {
		_, err := ParsePolicyDocument([]byte(`{"admin":[{"rights":["edit"]}]}`))
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})
}
