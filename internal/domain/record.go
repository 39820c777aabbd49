package domain

// Field is one of the fixed canonical targets that heterogeneous spreadsheet
// columns and model output are classified into.
type Field string

const (
	FieldName        Field = "name"
	FieldTaxID       Field = "taxId"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
	FieldAmount      Field = "amount"
	FieldDescription Field = "description"
	FieldDate        Field = "date"
	FieldCode        Field = "code"
	FieldAccount     Field = "account"
	FieldCategory    Field = "category"
	FieldEntity      Field = "entity"
)

// ImportRecord is the transient shape produced by the column classifier or by
// decoding model output: canonical field -> raw string value, plus the
// polarity flags inferred from the source. It lives for one import batch.
type ImportRecord struct {
	Fields       map[Field]string
	ForceIncome  bool
	ForceExpense bool
	// Line is the 1-based data row the record came from, used in warnings.
	Line int
}

// Get returns the raw value for a field, or "" when absent.
func (r ImportRecord) Get(f Field) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[f]
}

// Set assigns a raw value, allocating the map on first use.
func (r *ImportRecord) Set(f Field, v string) {
	if r.Fields == nil {
		r.Fields = make(map[Field]string)
	}
	r.Fields[f] = v
}
