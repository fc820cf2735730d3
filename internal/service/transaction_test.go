package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountCents(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"12.30", 1230},
		{"-12.30", -1230},
		{"+12.30", 1230},
		{"12", 1200},
		{"12.3", 1230},
		{"0.05", 5},
		{".05", 5},
		{"-.99", -99},
		{"0.00", 0},
		{"1000000", 100000000},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := parseAmountCents(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	invalid := []string{"", "-", "12.345", "abc", "12,30", "1.2.3"}
	for _, input := range invalid {
		t.Run("rejects "+input, func(t *testing.T) {
			_, err := parseAmountCents(input)
			assert.Error(t, err)
		})
	}
}

func TestParseImportCSV(t *testing.T) {
	t.Run("parses valid rows", func(t *testing.T) {
		csv := strings.Join([]string{
			"date,amount,category,note",
			"2026-01-05,-45.20,Groceries,weekly shop",
			"2026-01-06,1200.00,Salary,",
			"2026-01-07,-9.99",
		}, "\n")

		rows, rowErrors, err := parseImportCSV(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Empty(t, rowErrors)
		require.Len(t, rows, 3)

		assert.Equal(t, int64(-4520), rows[0].amountCents)
		assert.Equal(t, "Groceries", rows[0].categoryName)
		assert.Equal(t, "weekly shop", rows[0].note)
		assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), rows[0].occurredOn)

		assert.Equal(t, int64(120000), rows[1].amountCents)
		assert.Equal(t, "Salary", rows[1].categoryName)
		assert.Empty(t, rows[1].note)

		assert.Equal(t, int64(-999), rows[2].amountCents)
		assert.Empty(t, rows[2].categoryName)
	})

	t.Run("skips bad rows with line numbers", func(t *testing.T) {
		csv := strings.Join([]string{
			"date,amount,category,note",
			"2026-01-05,-45.20,Groceries,ok",
			"not-a-date,-45.20,Groceries,bad date",
			"2026-01-07,zero,Groceries,bad amount",
			"2026-01-08,0.00,Groceries,zero amount",
			"2026-01-09,-1.00,Groceries,ok",
		}, "\n")

		rows, rowErrors, err := parseImportCSV(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		require.Len(t, rowErrors, 3)
		assert.Equal(t, 3, rowErrors[0].Line)
		assert.Equal(t, 4, rowErrors[1].Line)
		assert.Equal(t, 5, rowErrors[2].Line)
	})

	t.Run("rejects missing header", func(t *testing.T) {
		_, _, err := parseImportCSV(strings.NewReader("2026-01-05,-45.20\n"))
		assert.Error(t, err)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, _, err := parseImportCSV(strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("accepts header case-insensitively", func(t *testing.T) {
		csv := "Date,Amount\n2026-01-05,-45.20\n"
		rows, rowErrors, err := parseImportCSV(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Empty(t, rowErrors)
		assert.Len(t, rows, 1)
	})

	t.Run("empty file body yields no rows", func(t *testing.T) {
		rows, rowErrors, err := parseImportCSV(strings.NewReader("date,amount,category,note\n"))
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.Empty(t, rowErrors)
	})
}
