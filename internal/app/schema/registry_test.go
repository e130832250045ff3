package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portal-umkm/submission-service/internal/errors"
)

func TestResolveIsCaseInsensitive(t *testing.T) {
	for _, tag := range []string{"kur", "KUR", " Kur "} {
		d, ok := Resolve(tag)
		require.True(t, ok, "tag %q should resolve", tag)
		assert.Equal(t, "kur_submissions", d.Table)
	}
}

func TestResolveUnknownTagFallsBack(t *testing.T) {
	_, ok := Resolve("program-baru")
	assert.False(t, ok)
	assert.Equal(t, GenericTable, TableFor("program-baru"))
}

func TestExtractOrdersValuesByColumn(t *testing.T) {
	d, ok := Resolve("kur")
	require.True(t, ok)

	payload := []byte(`{
		"ownerName": "Siti",
		"nik": "1234",
		"businessName": "Toko Siti",
		"businessSector": "perdagangan",
		"loanAmount": "5000000",
		"tenorMonths": "24"
	}`)

	values, err := d.Extract(payload)
	require.NoError(t, err)
	require.Len(t, values, len(d.Fields))
	assert.Equal(t, "Siti", values[0])
	assert.Equal(t, "1234", values[1])
	assert.Equal(t, "Toko Siti", values[2])
	assert.Equal(t, "24", values[5])
}

func TestExtractNestedPaths(t *testing.T) {
	d, ok := Resolve("nib")
	require.True(t, ok)

	payload := []byte(`{
		"owner": {"name": "Budi", "nik": "9876", "address": "Jl. Melati 1"},
		"business": {"name": "CV Budi Jaya", "sector": "jasa"}
	}`)

	values, err := d.Extract(payload)
	require.NoError(t, err)
	assert.Equal(t, "Budi", values[0])
	assert.Equal(t, "9876", values[1])
	assert.Equal(t, "CV Budi Jaya", values[3])
	assert.Nil(t, values[5], "absent optional field extracts as nil")
}

func TestExtractMissingRequiredField(t *testing.T) {
	d, ok := Resolve("nib")
	require.True(t, ok)

	// owner sub-object present but nik missing
	payload := []byte(`{"owner": {"name": "Budi"}, "business": {"name": "CV Budi Jaya"}}`)

	_, err := d.Extract(payload)
	require.Error(t, err)
	svcErr := errors.GetServiceError(err)
	require.NotNil(t, svcErr)
	assert.Equal(t, errors.CodeMalformedPayload, svcErr.Code)
	assert.Equal(t, "owner.nik", svcErr.Details["field"])
}

func TestExtractOptionalMissingBecomesNil(t *testing.T) {
	d, ok := Resolve("kur")
	require.True(t, ok)

	payload := []byte(`{"ownerName": "Siti", "nik": "1234", "businessName": "Toko Siti"}`)

	values, err := d.Extract(payload)
	require.NoError(t, err)
	assert.Nil(t, values[3])
	assert.Nil(t, values[4])
	assert.Nil(t, values[5])
}

func TestAllDescriptorsAreWellFormed(t *testing.T) {
	seenTables := map[string]bool{}
	for _, d := range All() {
		assert.NotEmpty(t, d.Tag)
		assert.NotEmpty(t, d.Table)
		assert.NotEmpty(t, d.Label)
		assert.False(t, seenTables[d.Table], "table %s registered twice", d.Table)
		seenTables[d.Table] = true

		headlineIsColumn := false
		for _, f := range d.Fields {
			if f.Column == d.Headline {
				headlineIsColumn = true
			}
		}
		assert.True(t, headlineIsColumn, "headline %s of %s must be a registered column", d.Headline, d.Tag)
	}
}
