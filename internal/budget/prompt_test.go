package budget

import (
	"math"
	"strings"
	"testing"
)

func mustParse(t *testing.T, req Request) Input {
	t.Helper()
	in, err := ParseRequest(req)
	if err != nil {
		t.Fatalf("parse request: %v", err)
	}
	return in
}

func TestBuildPromptDefaults(t *testing.T) {
	prompt := BuildPrompt(mustParse(t, Request{Salary: raw(`3200.50`)}))

	for _, want := range []string{
		"Create a detailed budget plan for someone with:",
		"- Monthly Salary: $3200.5\n",
		"- Spending Categories: []",
		"- Saving Options: []",
		"- Additional Notes: None",
		"1. Recommended budget allocation percentages",
		"4. Tips for better financial management",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptEmptyNotesIsNone(t *testing.T) {
	prompt := BuildPrompt(mustParse(t, Request{Salary: raw(`1`), Notes: raw(`""`)}))
	if !strings.Contains(prompt, "- Additional Notes: None") {
		t.Fatalf("expected None for empty notes:\n%s", prompt)
	}
}

func TestBuildPromptKeepsMarkup(t *testing.T) {
	prompt := BuildPrompt(mustParse(t, Request{Salary: raw(`1`), SpendingCategories: raw(`["Food & Drink"]`)}))
	if !strings.Contains(prompt, `["Food & Drink"]`) {
		t.Fatalf("expected unescaped list:\n%s", prompt)
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2000, "2000.00"},
		{4000 * 0.3, "1200.00"},
		{0.125, "0.13"},
		{1.005, "1.00"},
		{0.5, "0.50"},
		{0.004, "0.00"},
		{-12.5, "-12.50"},
		{1234.5678, "1234.57"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := formatCents(tt.in); got != tt.want {
			t.Fatalf("formatCents(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFallbackPlan(t *testing.T) {
	plan := FallbackPlan(Salary{Text: "3333", Value: 3333})
	for _, want := range []string{
		"Based on your monthly salary of $3333, here's a basic budget recommendation:",
		"**50/30/20 Rule:**",
		"$1666.50",
		"$999.90",
		"$666.60",
		"**Emergency Fund:** Try to save 3-6 months of expenses.",
		"please ensure your Gemini API key is configured correctly.*",
	} {
		if !strings.Contains(plan, want) {
			t.Fatalf("fallback missing %q:\n%s", want, plan)
		}
	}
}

func TestFallbackPlanKeepsSalaryText(t *testing.T) {
	plan := FallbackPlan(Salary{Text: "4000.50", Value: 4000.5})
	if !strings.Contains(plan, "monthly salary of $4000.50,") {
		t.Fatalf("expected submitted salary text:\n%s", plan)
	}
	if !strings.Contains(plan, "$1200.15") {
		t.Fatalf("expected 30%% amount:\n%s", plan)
	}
}
