package budget

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
)

const promptTemplate = `Create a detailed budget plan for someone with:
- Monthly Salary: $%s
- Spending Categories: %s
- Saving Options: %s
- Additional Notes: %s

Please provide:
1. Recommended budget allocation percentages
2. Specific dollar amounts for each category
3. Savings recommendations
4. Tips for better financial management

Keep the response practical and actionable.`

const fallbackTemplate = `Based on your monthly salary of $%s, here's a basic budget recommendation:

**50/30/20 Rule:**
- 50%% for Needs (Housing, utilities, groceries): $%s
- 30%% for Wants (Entertainment, dining out): $%s
- 20%% for Savings and Debt: $%s

**Emergency Fund:** Try to save 3-6 months of expenses.
**Investment:** Consider diversifying with the options you selected.

*Note: This is a basic plan. For personalized advice, please ensure your Gemini API key is configured correctly.*`

func BuildPrompt(in Input) string {
	return fmt.Sprintf(promptTemplate,
		in.Salary.Text,
		listText(in.SpendingCategories),
		listText(in.SavingOptions),
		in.NotesText,
	)
}

// FallbackPlan is the fixed 50/30/20 plan used whenever generation fails.
func FallbackPlan(salary Salary) string {
	return fmt.Sprintf(fallbackTemplate,
		salary.Text,
		formatCents(salary.Value*0.5),
		formatCents(salary.Value*0.3),
		formatCents(salary.Value*0.2),
	)
}

// formatCents renders two decimals, rounding exact halves away from zero.
func formatCents(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return formatNumber(value)
	}
	scaled := new(big.Float).SetPrec(128).SetFloat64(value)
	negative := scaled.Sign() < 0
	scaled.Abs(scaled)
	scaled.Mul(scaled, big.NewFloat(100))

	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(128).Sub(scaled, new(big.Float).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		whole.Add(whole, big.NewInt(1))
	}

	digits := whole.String()
	if len(digits) < 3 {
		digits = strings.Repeat("0", 3-len(digits)) + digits
	}
	out := digits[:len(digits)-2] + "." + digits[len(digits)-2:]
	if negative {
		out = "-" + out
	}
	return out
}

func listText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return string(emptyList)
	}
	return string(raw)
}
