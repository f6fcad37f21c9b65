package cards

import "fmt"

// Data integrity kinds.
const (
	IntegrityCardTemplate = "card_template"
	IntegrityCardInstance = "card_instance"
	IntegrityWonder       = "wonder"
	IntegrityDeckSize     = "deck_size"
)

// DataIntegrityError reports static content that is missing or inconsistent.
// It is fatal to the game that hit it.
type DataIntegrityError struct {
	Kind   string
	ID     string
	Detail string
}

func (e *DataIntegrityError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("data integrity: %s %q not found", e.Kind, e.ID)
	}
	return fmt.Sprintf("data integrity: %s %q: %s", e.Kind, e.ID, e.Detail)
}

// MissingTemplate builds the error for an unknown template id.
func MissingTemplate(id string) *DataIntegrityError {
	return &DataIntegrityError{Kind: IntegrityCardTemplate, ID: id}
}

// MissingWonder builds the error for an unknown wonder id.
func MissingWonder(id string) *DataIntegrityError {
	return &DataIntegrityError{Kind: IntegrityWonder, ID: id}
}
