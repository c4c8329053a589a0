package models

// DataEnvelope is the wire shape of an encrypted exchange: a single
// "data" field carrying the "<nonceHex>:<cipherHex>" transport string.
// Station firmware sends and expects exactly this shape.
type DataEnvelope struct {
	Data string `json:"data"`
}

// Validate validates the envelope.
func (r *DataEnvelope) Validate() []FieldError {
	var errors []FieldError

	if r.Data == "" {
		errors = append(errors, FieldError{Field: "data", Message: "data is required", Code: "REQUIRED"})
	}

	return errors
}
