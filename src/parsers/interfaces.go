package parsers

import "github.com/username/inversiones/src/models"

// RecordLoader turns a spreadsheet or delimited-text file into canonical records.
type RecordLoader interface {
	Load(filePath string) (models.RecordSet, error)
}
