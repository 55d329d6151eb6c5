package core

import "github.com/shopspring/decimal"

// ChargesInput is everything the charges and tax calculator needs.
// HideCharges is set by document types that carry no charges at all.
type ChargesInput struct {
	ItemTotal   decimal.Decimal
	Charges     Charges
	SalesTaxes  SalesTaxes
	HideCharges bool
}

// ChargesResult holds the resolved charge and tax lines and their sums.
type ChargesResult struct {
	Charges      Charges
	SalesTaxes   SalesTaxes
	ChargesTotal decimal.Decimal
	TaxableBase  decimal.Decimal
	TaxTotal     decimal.Decimal
}

// CalculateCharges derives charge amounts from the item total, builds the
// taxable base from the taxable charges and applies both sales tax slots
// to that base. A null amount stays null on the line but counts as zero
// in every sum.
func CalculateCharges(in ChargesInput) ChargesResult {
	out := ChargesResult{
		ChargesTotal: decimal.Zero,
		TaxableBase:  in.ItemTotal,
		TaxTotal:     decimal.Zero,
	}

	for _, cat := range ChargeCategories {
		if in.HideCharges {
			*out.Charges.Line(cat) = ChargeLine{Amount: nullOf(decimal.Zero)}
			continue
		}
		line := resolveCharge(in.ItemTotal, in.Charges.Get(cat))
		*out.Charges.Line(cat) = line

		amount := valueOrZero(line.Amount)
		out.ChargesTotal = out.ChargesTotal.Add(amount)
		if line.Taxable {
			out.TaxableBase = out.TaxableBase.Add(amount)
		}
	}

	for _, slot := range TaxSlots {
		line := resolveTax(out.TaxableBase, in.SalesTaxes.Get(slot))
		*out.SalesTaxes.Line(slot) = line
		out.TaxTotal = out.TaxTotal.Add(valueOrZero(line.Amount))
	}

	return out
}

func resolveCharge(itemTotal decimal.Decimal, in ChargeLine) ChargeLine {
	out := ChargeLine{Percentage: in.Percentage, Amount: in.Amount, Taxable: in.Taxable}
	if in.Percentage.Valid {
		out.Amount = nullOf(percentOf(itemTotal, in.Percentage.Decimal))
	}
	return out
}

func resolveTax(base decimal.Decimal, in SalesTaxLine) SalesTaxLine {
	out := SalesTaxLine{Percentage: in.Percentage, Amount: in.Amount}
	if in.Percentage.Valid {
		out.Amount = nullOf(percentOf(base, in.Percentage.Decimal))
	}
	return out
}

func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}
