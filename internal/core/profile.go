package core

import "fmt"

// Profile parameterises the engine for one document type and kind.
// The engine has no notion of document type beyond these switches.
type Profile struct {
	HideCharges    bool   `yaml:"hide_charges" json:"hide_charges"`
	AllowEditTotal bool   `yaml:"allow_edit_total" json:"allow_edit_total"`
	TotalField     string `yaml:"total_field" json:"total_field"`
	// TrustStoredTotals lets Decorate read summary totals from storage.
	// No built-in profile sets it: totals go stale as soon as a line item changes.
	TrustStoredTotals bool `yaml:"trust_stored_totals" json:"trust_stored_totals"`
}

// ProfileSet maps a document type and kind to its Profile.
type ProfileSet map[string]Profile

// ProfileKey builds the lookup key for t and k.
func ProfileKey(t DocumentType, k DocumentKind) string {
	return fmt.Sprintf("%s/%s", t, k)
}

// DefaultProfiles returns the built-in profiles. Labor documents carry no
// charges; invoices allow a manually entered (partial payment) total.
func DefaultProfiles() ProfileSet {
	return ProfileSet{
		ProfileKey(PurchaseOrder, Material): {TotalField: FieldTotalPOAmount},
		ProfileKey(PurchaseOrder, Labor):    {TotalField: FieldTotalPOAmount, HideCharges: true},
		ProfileKey(ChangeOrder, Material):   {TotalField: FieldTotalCOAmount},
		ProfileKey(ChangeOrder, Labor):      {TotalField: FieldTotalCOAmount, HideCharges: true},
		ProfileKey(Invoice, Material):       {TotalField: FieldAmount, AllowEditTotal: true},
		ProfileKey(Invoice, Labor):          {TotalField: FieldAmount, AllowEditTotal: true, HideCharges: true},
	}
}

// Lookup returns the profile for t and k. Unknown combinations fall back to
// a plain profile that writes total_amount.
func (s ProfileSet) Lookup(t DocumentType, k DocumentKind) Profile {
	if p, ok := s[ProfileKey(t, k)]; ok {
		if p.TotalField == "" {
			p.TotalField = "total_amount"
		}
		return p
	}
	return Profile{TotalField: "total_amount"}
}

// Clone returns a copy safe to modify.
func (s ProfileSet) Clone() ProfileSet {
	out := make(ProfileSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
