package parsers

import (
	"strings"

	"github.com/username/inversiones/src/models"
	"github.com/username/inversiones/src/security/validation"
	"golang.org/x/text/unicode/norm"
)

// HeaderTable maps a normalized header to the canonical field it feeds.
type HeaderTable map[string]models.Field

var defaultHeaderSynonyms = map[string]models.Field{
	"fecha transaccion": models.FieldTransactionDate,
	"fecha":             models.FieldTransactionDate,
	"fecha_transaccion": models.FieldTransactionDate,

	"indice": models.FieldInstrument,
	"index":  models.FieldInstrument,

	"usd transaccionados": models.FieldUSDAmount,
	"usd":                 models.FieldUSDAmount,

	"cantidad de shares": models.FieldShares,
	"shares":             models.FieldShares,
	"n° acciones":        models.FieldShares,
	"nº acciones":        models.FieldShares,
	"n° de acciones":     models.FieldShares,
	"nº de acciones":     models.FieldShares,
	"cantidad":           models.FieldShares,

	"precio accion":  models.FieldPurchasePrice,
	"precio acción":  models.FieldPurchasePrice,
	"precio":         models.FieldPurchasePrice,
	"precio_compra":  models.FieldPurchasePrice,
	"precio compra":  models.FieldPurchasePrice,
	"precio_actual":  models.FieldCurrentPrice,
	"precio actual":  models.FieldCurrentPrice,
	"precio venta":   models.FieldCurrentPrice,
	"valor actual":   models.FieldCurrentValue,
	"valor_actual":   models.FieldCurrentValue,

	"rentabilidad %":                 models.FieldReturnPct,
	"rentabilidad en el periodo %":   models.FieldReturnPct,
	"% rentabilidad":                 models.FieldReturnPct,
	"rentabilidad":                   models.FieldReturnPct,
	"rentabilidad_pct":               models.FieldReturnPct,
	"rentabilidad clp":               models.FieldReturnLocalCurrency,
	"rentabilidad en el periodo clp": models.FieldReturnLocalCurrency,
	"rentabilidad_clp":               models.FieldReturnLocalCurrency,
}

// DefaultHeaderTable returns a fresh copy of the built-in synonyms, including
// the canonical field names themselves so the persisted file reloads as-is.
func DefaultHeaderTable() HeaderTable {
	t := make(HeaderTable, len(defaultHeaderSynonyms)+len(models.CanonicalFields))
	for raw, f := range defaultHeaderSynonyms {
		t[raw] = f
	}
	for _, f := range models.CanonicalFields {
		t[f.String()] = f
	}
	return t
}

// With returns a copy of t extended by extra, keyed by raw header and valued by
// canonical field name. Unknown field names are returned in rejected.
func (t HeaderTable) With(extra map[string]string) (out HeaderTable, rejected []string) {
	out = make(HeaderTable, len(t)+len(extra))
	for raw, f := range t {
		out[raw] = f
	}
	for raw, name := range extra {
		f, ok := models.ParseField(name)
		if !ok {
			rejected = append(rejected, raw+"="+name)
			continue
		}
		out[NormalizeHeader(raw)] = f
	}
	return out, rejected
}

// NormalizeHeader makes header matching case- and whitespace-insensitive.
func NormalizeHeader(h string) string {
	h = validation.StripUnprintable(norm.NFC.String(h))
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// Lookup resolves a single raw header.
func (t HeaderTable) Lookup(raw string) (models.Field, bool) {
	f, ok := t[NormalizeHeader(raw)]
	return f, ok
}

// Resolve maps each recognized canonical field to its source column index.
// When several headers resolve to the same field, the last one in file order
// wins. Unrecognized headers are ignored.
func (t HeaderTable) Resolve(headers []string) map[models.Field]int {
	columns := make(map[models.Field]int)
	for i, h := range headers {
		if f, ok := t.Lookup(h); ok {
			columns[f] = i
		}
	}
	return columns
}

// ResolveHeaders resolves headers against the built-in table.
func ResolveHeaders(headers []string) map[models.Field]int {
	return DefaultHeaderTable().Resolve(headers)
}
