package repository

import (
	"testing"

	"product-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name    string
		product model.Product
		wantErr string
	}{
		{
			name:    "valid",
			product: model.Product{Name: "Gloves", Description: "good to wear"},
		},
		{
			name:    "missing description",
			product: model.Product{Name: "yang"},
			wantErr: "Product validation failed: description: Path `description` is required.",
		},
		{
			name:    "missing name",
			product: model.Product{Description: "good to wear"},
			wantErr: "Product validation failed: name: Path `name` is required.",
		},
		{
			name:    "missing both keeps schema order",
			product: model.Product{},
			wantErr: "Product validation failed: name: Path `name` is required., description: Path `description` is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProduct(&tt.product)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Error())
		})
	}
}

func TestParseID(t *testing.T) {
	oid, err := parseID("5fe1da6e715bc436c8b8aaaa")
	require.NoError(t, err)
	assert.Equal(t, "5fe1da6e715bc436c8b8aaaa", oid.Hex())

	_, err = parseID("abc")
	var cerr *CastError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, `Cast to ObjectId failed for value "abc" (type string) at path "_id" for model "Product"`, cerr.Error())
}
