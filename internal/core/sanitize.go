package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sanitizer normalises raw line item payloads into MaterialItem and
// LaborItem. NewID generates ids for items that arrive without one.
type Sanitizer struct {
	NewID func() string
}

// NewSanitizer returns a Sanitizer that generates random UUIDs.
func NewSanitizer() Sanitizer {
	return Sanitizer{NewID: uuid.NewString}
}

// SanitizeMaterialItem is NewSanitizer().Material.
func SanitizeMaterialItem(raw map[string]any, orderIndex int) MaterialItem {
	return NewSanitizer().Material(raw, orderIndex)
}

// SanitizeLaborItem is NewSanitizer().Labor.
func SanitizeLaborItem(raw map[string]any, orderIndex int) LaborItem {
	return NewSanitizer().Labor(raw, orderIndex)
}

// Material builds a fully populated MaterialItem from any payload, {} included.
func (s Sanitizer) Material(raw map[string]any, orderIndex int) MaterialItem {
	src := s.source(raw, orderIndex)
	return MaterialItem{
		UUID:           resolveString(uuidRule, src),
		ItemName:       resolveString(itemNameRule, src),
		Description:    resolveString(descriptionRule, src),
		CostCode:       resolveString(costCodeRule, src),
		ItemType:       resolveString(materialItemTypeRule, src),
		Division:       resolveString(divisionRule, src),
		Unit:           resolveString(unitRule, src),
		Quantity:       resolveDecimal(quantityRule, src),
		UnitPrice:      resolveDecimal(unitPriceRule, src),
		Total:          resolveDecimal(materialTotalRule, src),
		ApprovalChecks: resolveList(approvalChecksRule, src),
		Metadata:       src.meta,
		IsActive:       resolveBool(isActiveRule, src),
		OrderIndex:     orderIndex,
	}
}

// Labor builds a fully populated LaborItem from any payload, {} included.
func (s Sanitizer) Labor(raw map[string]any, orderIndex int) LaborItem {
	src := s.source(raw, orderIndex)
	return LaborItem{
		UUID:           resolveString(uuidRule, src),
		ItemName:       resolveString(itemNameRule, src),
		Description:    resolveString(descriptionRule, src),
		CostCode:       resolveString(costCodeRule, src),
		ItemType:       resolveString(laborItemTypeRule, src),
		Division:       resolveString(divisionRule, src),
		POAmount:       resolveDecimal(poAmountRule, src),
		COAmount:       resolveDecimal(coAmountRule, src),
		ApprovalChecks: resolveList(approvalChecksRule, src),
		Metadata:       src.meta,
		IsActive:       resolveBool(isActiveRule, src),
		OrderIndex:     orderIndex,
	}
}

func (s Sanitizer) source(raw map[string]any, orderIndex int) itemSource {
	if raw == nil {
		raw = map[string]any{}
	}
	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return itemSource{raw: raw, meta: metadataOf(raw["metadata"]), index: orderIndex, newID: newID}
}

// ── Field precedence ─────────────────────────────────────────────────────────
//
// Each canonical field is resolved from an ordered list of candidates: the
// explicit field and its aliases, then the metadata bag, then a computed
// fallback. The first candidate that yields a usable value wins.

type itemSource struct {
	raw   map[string]any
	meta  map[string]any
	index int
	newID func() string
}

type candidate struct {
	label string
	get   func(src itemSource) (any, bool)
}

type fieldRule struct {
	field      string
	candidates []candidate
}

func (r fieldRule) resolve(src itemSource) (any, bool) {
	for _, c := range r.candidates {
		if v, ok := c.get(src); ok {
			return v, true
		}
	}
	return nil, false
}

func (r fieldRule) labels() []string {
	out := make([]string, len(r.candidates))
	for i, c := range r.candidates {
		out[i] = c.label
	}
	return out
}

func field(key string) candidate {
	return candidate{label: key, get: func(src itemSource) (any, bool) {
		v := src.raw[key]
		return v, isPresent(v)
	}}
}

func metaField(key string) candidate {
	return candidate{label: "metadata." + key, get: func(src itemSource) (any, bool) {
		v := src.meta[key]
		return v, isPresent(v)
	}}
}

func numField(key string) candidate {
	return candidate{label: key, get: func(src itemSource) (any, bool) {
		n := ToNumberOrNull(src.raw[key])
		return n.Decimal, n.Valid
	}}
}

func numMetaField(key string) candidate {
	return candidate{label: "metadata." + key, get: func(src itemSource) (any, bool) {
		n := ToNumberOrNull(src.meta[key])
		return n.Decimal, n.Valid
	}}
}

func listField(key string) candidate {
	return candidate{label: key, get: func(src itemSource) (any, bool) {
		l := listOf(src.raw[key])
		return l, len(l) > 0
	}}
}

func computed(label string, fn func(src itemSource) any) candidate {
	return candidate{label: "computed:" + label, get: func(src itemSource) (any, bool) {
		return fn(src), true
	}}
}

func constant(v any) candidate {
	return computed(fmt.Sprint(v), func(itemSource) any { return v })
}

var (
	uuidRule = fieldRule{"uuid", []candidate{
		field("uuid"), field("id"), metaField("uuid"),
		computed("generated", func(src itemSource) any { return src.newID() }),
	}}
	itemNameRule = fieldRule{"item_name", []candidate{
		field("item_name"), field("name"), field("itemName"), metaField("item_name"),
		field("description"),
		computed("Item <n>", func(src itemSource) any { return fmt.Sprintf("Item %d", src.index+1) }),
	}}
	descriptionRule = fieldRule{"description", []candidate{
		field("description"), metaField("description"), constant(""),
	}}
	costCodeRule = fieldRule{"cost_code", []candidate{
		field("cost_code"), field("costCode"), metaField("cost_code"), constant(""),
	}}
	materialItemTypeRule = fieldRule{"item_type", []candidate{
		field("item_type"), field("type"), metaField("item_type"), constant("material"),
	}}
	laborItemTypeRule = fieldRule{"item_type", []candidate{
		field("item_type"), field("type"), metaField("item_type"), constant("labor"),
	}}
	divisionRule = fieldRule{"division", []candidate{
		field("division"), metaField("division"), constant(""),
	}}
	unitRule = fieldRule{"unit", []candidate{
		field("unit"), field("uom"), metaField("unit"), constant(""),
	}}
	quantityRule = fieldRule{"quantity", []candidate{
		numField("quantity"), numField("qty"), numMetaField("quantity"), constant(decimal.Zero),
	}}
	unitPriceRule = fieldRule{"unit_price", []candidate{
		numField("unit_price"), numField("unitPrice"), numField("price"), numMetaField("unit_price"), constant(decimal.Zero),
	}}
	materialTotalRule = fieldRule{"total", []candidate{
		numField("total"), numField("line_total"), numField("total_amount"), numMetaField("total"),
		computed("quantity * unit_price", func(src itemSource) any {
			return resolveDecimal(quantityRule, src).Mul(resolveDecimal(unitPriceRule, src))
		}),
	}}
	poAmountRule = fieldRule{"po_amount", []candidate{
		numField("po_amount"), numField("poAmount"), numMetaField("po_amount"), constant(decimal.Zero),
	}}
	coAmountRule = fieldRule{"co_amount", []candidate{
		numField("co_amount"), numField("coAmount"), numMetaField("co_amount"), constant(decimal.Zero),
	}}
	approvalChecksRule = fieldRule{"approval_checks", []candidate{
		listField("approval_checks"), listField("approvalChecks"),
		computed("[]", func(itemSource) any { return []string{} }),
	}}
	isActiveRule = fieldRule{"is_active", []candidate{
		field("is_active"), field("isActive"), field("active"), constant(true),
	}}
)

var (
	materialRules = []fieldRule{uuidRule, itemNameRule, descriptionRule, costCodeRule, materialItemTypeRule,
		divisionRule, unitRule, quantityRule, unitPriceRule, materialTotalRule, approvalChecksRule, isActiveRule}
	laborRules = []fieldRule{uuidRule, itemNameRule, descriptionRule, costCodeRule, laborItemTypeRule,
		divisionRule, poAmountRule, coAmountRule, approvalChecksRule, isActiveRule}
)

// MaterialFieldPrecedence lists, in order, where a material item field is read from.
func MaterialFieldPrecedence(name string) []string {
	return precedence(materialRules, name)
}

// LaborFieldPrecedence lists, in order, where a labor item field is read from.
func LaborFieldPrecedence(name string) []string {
	return precedence(laborRules, name)
}

func precedence(rules []fieldRule, name string) []string {
	for _, r := range rules {
		if r.field == name {
			return r.labels()
		}
	}
	return nil
}

func resolveString(r fieldRule, src itemSource) string {
	v, _ := r.resolve(src)
	return stringOf(v)
}

func resolveDecimal(r fieldRule, src itemSource) decimal.Decimal {
	v, _ := r.resolve(src)
	return ToNumberOrZero(v)
}

func resolveBool(r fieldRule, src itemSource) bool {
	v, _ := r.resolve(src)
	return ToBoolean(v)
}

func resolveList(r fieldRule, src itemSource) []string {
	v, _ := r.resolve(src)
	if l, ok := v.([]string); ok {
		return l
	}
	return []string{}
}

func isPresent(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	}
	return true
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case decimal.Decimal:
		return t.String()
	case json.Number:
		return t.String()
	case float64, float32, int, int32, int64:
		if n := ToNumberOrNull(t); n.Valid {
			return n.Decimal.String()
		}
		return ""
	}
	return fmt.Sprint(v)
}

// listOf accepts []string, []any, a JSON array string or a comma separated
// string, dropping blank entries.
func listOf(v any) []string {
	var items []any
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			items = append(items, s)
		}
	case []any:
		items = t
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			var decoded []any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				items = decoded
				break
			}
		}
		for _, part := range strings.Split(s, ",") {
			items = append(items, part)
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringOf(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// metadataOf returns a copy of the metadata bag, decoding it when it was
// stored as JSON text. Anything else yields an empty map.
func metadataOf(v any) map[string]any {
	out := map[string]any{}
	var src map[string]any
	switch t := v.(type) {
	case map[string]any:
		src = t
	case string:
		dec := json.NewDecoder(bytes.NewReader([]byte(t)))
		dec.UseNumber()
		if err := dec.Decode(&src); err != nil {
			return out
		}
	case []byte:
		dec := json.NewDecoder(bytes.NewReader(t))
		dec.UseNumber()
		if err := dec.Decode(&src); err != nil {
			return out
		}
	}
	for k, val := range src {
		out[k] = val
	}
	return out
}
