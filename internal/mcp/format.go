package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/symdex/internal/store"
)

// FormatSymbols renders symbol matches as markdown.
func FormatSymbols(name string, symbols []store.Symbol) string {
	if len(symbols) == 0 {
		return fmt.Sprintf("No symbols found for \"%s\"", name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Symbols matching \"%s\"\n\n", name)
	fmt.Fprintf(&sb, "Found %d symbol", len(symbols))
	if len(symbols) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, sym := range symbols {
		formatSymbol(&sb, i+1, sym)
	}
	return sb.String()
}

func formatSymbol(sb *strings.Builder, num int, sym store.Symbol) {
	location := "builtin"
	if !sym.Builtin {
		location = fmt.Sprintf("%s:%d-%d", sym.FilePath, sym.StartLine, sym.EndLine)
	}
	fmt.Fprintf(sb, "### %d. `%s` (%s, %s)\n", num, sym.Name, sym.Kind, sym.Language)
	fmt.Fprintf(sb, "%s\n\n", location)

	if sym.Signature != "" {
		lang := sym.Language
		if lang == "" {
			lang = "text"
		}
		fmt.Fprintf(sb, "```%s\n%s\n```\n\n", lang, sym.Signature)
	}
	if sym.DocComment != "" {
		sb.WriteString(sym.DocComment)
		sb.WriteString("\n\n")
	}
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit > max {
		return max
	}
	return limit
}

func symbolsOutput(symbols []store.Symbol) SearchSymbolsOutput {
	out := SearchSymbolsOutput{Symbols: make([]SymbolOutput, 0, len(symbols))}
	for _, sym := range symbols {
		out.Symbols = append(out.Symbols, SymbolOutput{
			Name:      sym.Name,
			Kind:      string(sym.Kind),
			Language:  sym.Language,
			FilePath:  sym.FilePath,
			StartLine: sym.StartLine,
			EndLine:   sym.EndLine,
			Signature: sym.Signature,
			Builtin:   sym.Builtin,
		})
	}
	return out
}
