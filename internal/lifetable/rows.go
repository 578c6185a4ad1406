package lifetable

// Column names used by Rows and Column.
var Columns = []string{"age_lower", "age_upper", "n", "mx", "ax", "qx", "px", "lx", "dx", "Lx", "Tx", "ex"}

// Rows converts the table into one plain mapping per age group, keyed by the
// names in Columns. Open bounds and widths are nil.
func (t *Table) Rows() []map[string]any {
	rows := make([]map[string]any, t.Len())
	for i := range rows {
		rows[i] = map[string]any{
			"age_lower": t.AgeLower[i],
			"age_upper": boundValue(t.AgeUpper[i]),
			"n":         boundValue(t.N[i]),
			"mx":        t.Mx[i],
			"ax":        t.Ax[i],
			"qx":        t.Qx[i],
			"px":        t.Px[i],
			"lx":        t.Lx[i],
			"dx":        t.Dx[i],
			"Lx":        t.LLx[i],
			"Tx":        t.Tx[i],
			"ex":        t.Ex[i],
		}
	}
	return rows
}

// Column returns a copy of the named numeric column.
// age_upper and n can hold open bounds and are only available through Rows.
func (t *Table) Column(name string) ([]float64, bool) {
	var src []float64
	switch name {
	case "age_lower":
		src = t.AgeLower
	case "mx":
		src = t.Mx
	case "ax":
		src = t.Ax
	case "qx":
		src = t.Qx
	case "px":
		src = t.Px
	case "lx":
		src = t.Lx
	case "dx":
		src = t.Dx
	case "Lx":
		src = t.LLx
	case "Tx":
		src = t.Tx
	case "ex":
		src = t.Ex
	default:
		return nil, false
	}
	return append([]float64(nil), src...), true
}

func boundValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
