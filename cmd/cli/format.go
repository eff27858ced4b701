package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// formatBytes formata tamanho em bytes
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatNumber formata número com separadores de milhares
func formatNumber(n int64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	str := fmt.Sprintf("%d", n)

	var b strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(char)
	}
	return sign + b.String()
}

// formatMoney formata valor monetário com duas casas, vírgula decimal e
// separador de milhares
func formatMoney(v float64) string {
	fixed := decimal.NewFromFloat(v).Round(2)
	intPart := fixed.Truncate(0)
	cents := fixed.Sub(intPart).Abs().Shift(2).IntPart()

	sign := ""
	if fixed.IsNegative() {
		sign = "-"
		intPart = intPart.Abs()
	}
	return fmt.Sprintf("%s%s,%02d", sign, formatNumber(intPart.IntPart()), cents)
}

// expandPaths resolve wildcards; padrões sem correspondência são mantidos
func expandPaths(patterns []string) ([]string, error) {
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("padrão inválido %q: %w", p, err)
		}
		if len(matches) == 0 {
			files = append(files, p)
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}
