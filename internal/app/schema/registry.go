// Package schema maps submission type tags to their target table, column
// layout and payload extraction rule. It is the single place a new program
// type is added; no other component branches on the type tag.
package schema

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/portal-umkm/submission-service/internal/errors"
)

const (
	// GenericTable is the catch-all storage for unrecognized type tags.
	GenericTable = "pengajuan_umum"
	// GenericLabel prefixes titles synthesized for generic-fallback rows.
	GenericLabel = "Pengajuan Lainnya"
	// ForumTable participates in the history aggregation but is owned by the
	// community module and carries no status column.
	ForumTable = "forum_posts"
	// ForumLabel prefixes titles synthesized for forum rows.
	ForumLabel = "Postingan Forum"
)

// Field binds one destination column to a path inside the submitted payload.
// Paths may be nested ("owner.nik"). Required fields abort extraction when
// absent; optional fields extract as NULL.
type Field struct {
	Column   string
	Path     string
	Required bool
}

// Descriptor describes where and how one program type is persisted.
type Descriptor struct {
	Tag      string
	Table    string
	Label    string
	Headline string // column whose value completes the history title
	Fields   []Field
}

// Columns returns the ordered destination column list.
func (d Descriptor) Columns() []string {
	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Extract pulls the descriptor's fields out of payload in column order.
// A missing required field fails the whole extraction; nothing is inserted
// with silently nulled structural data. Missing optional fields become nil.
func (d Descriptor) Extract(payload []byte) ([]interface{}, error) {
	values := make([]interface{}, 0, len(d.Fields))
	for _, f := range d.Fields {
		res := gjson.GetBytes(payload, f.Path)
		if !res.Exists() {
			if f.Required {
				return nil, errors.MalformedPayload(f.Path)
			}
			values = append(values, nil)
			continue
		}
		if res.IsObject() || res.IsArray() {
			values = append(values, res.Raw)
			continue
		}
		values = append(values, res.Value())
	}
	return values, nil
}

var registry = []Descriptor{
	{
		Tag: "kur", Table: "kur_submissions", Label: "Pengajuan KUR", Headline: "business_name",
		Fields: []Field{
			{Column: "owner_name", Path: "ownerName", Required: true},
			{Column: "nik", Path: "nik", Required: true},
			{Column: "business_name", Path: "businessName", Required: true},
			{Column: "business_sector", Path: "businessSector"},
			{Column: "loan_amount", Path: "loanAmount"},
			{Column: "tenor_months", Path: "tenorMonths"},
		},
	},
	{
		Tag: "umi", Table: "umi_submissions", Label: "Pengajuan UMi", Headline: "business_name",
		Fields: []Field{
			{Column: "owner_name", Path: "ownerName", Required: true},
			{Column: "nik", Path: "nik", Required: true},
			{Column: "business_name", Path: "businessName", Required: true},
			{Column: "loan_amount", Path: "loanAmount"},
			{Column: "channeling_agency", Path: "channelingAgency"},
		},
	},
	{
		Tag: "lpdb", Table: "lpdb_submissions", Label: "Pengajuan LPDB", Headline: "cooperative_name",
		Fields: []Field{
			{Column: "cooperative_name", Path: "cooperativeName", Required: true},
			{Column: "chairman_name", Path: "chairmanName", Required: true},
			{Column: "nik", Path: "nik"},
			{Column: "loan_amount", Path: "loanAmount"},
			{Column: "purpose", Path: "purpose"},
		},
	},
	{
		Tag: "nib", Table: "nib_submissions", Label: "Pengajuan NIB", Headline: "business_name",
		Fields: []Field{
			{Column: "owner_name", Path: "owner.name", Required: true},
			{Column: "owner_nik", Path: "owner.nik", Required: true},
			{Column: "owner_address", Path: "owner.address"},
			{Column: "business_name", Path: "business.name", Required: true},
			{Column: "business_sector", Path: "business.sector"},
			{Column: "business_address", Path: "business.address"},
		},
	},
	{
		Tag: "merek", Table: "merek_submissions", Label: "Pendaftaran Merek", Headline: "brand_name",
		Fields: []Field{
			{Column: "brand_name", Path: "brandName", Required: true},
			{Column: "owner_name", Path: "ownerName", Required: true},
			{Column: "nik", Path: "nik"},
			{Column: "business_category", Path: "businessCategory"},
			{Column: "description", Path: "description"},
		},
	},
	{
		Tag: "halal", Table: "halal_submissions", Label: "Sertifikasi Halal", Headline: "business_name",
		Fields: []Field{
			{Column: "business_name", Path: "businessName", Required: true},
			{Column: "owner_name", Path: "ownerName", Required: true},
			{Column: "nik", Path: "nik"},
			{Column: "product_type", Path: "productType"},
			{Column: "certification_body", Path: "certificationBody"},
		},
	},
	{
		Tag: "pirt", Table: "pirt_submissions", Label: "Izin PIRT", Headline: "business_name",
		Fields: []Field{
			{Column: "business_name", Path: "businessName", Required: true},
			{Column: "owner_name", Path: "ownerName", Required: true},
			{Column: "nik", Path: "nik"},
			{Column: "product_name", Path: "productName"},
			{Column: "production_address", Path: "productionAddress"},
		},
	},
	{
		Tag: "sni", Table: "sni_submissions", Label: "Sertifikasi SNI", Headline: "business_name",
		Fields: []Field{
			{Column: "business_name", Path: "businessName", Required: true},
			{Column: "owner_name", Path: "ownerName", Required: true},
			{Column: "product_name", Path: "productName"},
			{Column: "standard_code", Path: "standardCode"},
		},
	},
	{
		Tag: "pelatihan", Table: "pelatihan_submissions", Label: "Pendaftaran Pelatihan", Headline: "training_name",
		Fields: []Field{
			{Column: "participant_name", Path: "participantName", Required: true},
			{Column: "nik", Path: "nik"},
			{Column: "training_name", Path: "trainingName", Required: true},
			{Column: "institution", Path: "institution"},
		},
	},
	{
		Tag: "inkubasi", Table: "inkubasi_submissions", Label: "Program Inkubasi", Headline: "business_name",
		Fields: []Field{
			{Column: "business_name", Path: "businessName", Required: true},
			{Column: "owner_name", Path: "ownerName", Required: true},
			{Column: "nik", Path: "nik"},
			{Column: "stage", Path: "stage"},
			{Column: "description", Path: "description"},
		},
	},
	{
		Tag: "laporan", Table: "laporan_submissions", Label: "Laporan Perkembangan", Headline: "business_name",
		Fields: []Field{
			{Column: "business_name", Path: "businessName", Required: true},
			{Column: "period", Path: "period", Required: true},
			{Column: "revenue", Path: "revenue"},
			{Column: "expenses", Path: "expenses"},
			{Column: "notes", Path: "notes"},
		},
	},
	{
		Tag: "izin_usaha", Table: "izin_usaha_submissions", Label: "Izin Usaha", Headline: "business_name",
		Fields: []Field{
			{Column: "business_name", Path: "businessName", Required: true},
			{Column: "owner_name", Path: "ownerName", Required: true},
			{Column: "nik", Path: "nik"},
			{Column: "business_type", Path: "businessType"},
			{Column: "address", Path: "address"},
		},
	},
}

var byTag = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(registry))
	for _, d := range registry {
		m[d.Tag] = d
	}
	return m
}()

// Resolve looks up the descriptor for a type tag. Matching is
// case-insensitive. The second return is false for unrecognized tags, which
// callers route to the generic fallback table.
func Resolve(typeTag string) (Descriptor, bool) {
	d, ok := byTag[strings.ToLower(strings.TrimSpace(typeTag))]
	return d, ok
}

// All returns every registered descriptor in a stable order.
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// TableFor resolves the table a type tag is persisted to, falling back to the
// generic table for unrecognized tags.
func TableFor(typeTag string) string {
	if d, ok := Resolve(typeTag); ok {
		return d.Table
	}
	return GenericTable
}
