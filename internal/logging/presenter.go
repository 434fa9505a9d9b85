// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"seedfast/qbase/pkg/quickbase"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// FormatClientError renders a client error with a title and a hint chosen
// by its kind.
func FormatClientError(err error) string {
	if err == nil {
		return ""
	}
	title, hint := describe(err)

	var b strings.Builder
	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title))
	b.WriteString("\n")
	if hint != "" {
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ " + hint))
		b.WriteString("\n")
	}
	b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Details: " + Mask(err.Error())))
	return b.String()
}

func describe(err error) (title, hint string) {
	var qe *quickbase.Error
	if !errors.As(err, &qe) {
		return "Command failed", ""
	}
	switch qe.Kind {
	case quickbase.InvalidArgument:
		return "Invalid input", "Check the command arguments and your configuration"
	case quickbase.Authentication:
		return "QuickBase rejected the credentials", "Run 'qbase login' again or check QBASE_USERNAME/QBASE_PASSWORD"
	case quickbase.Resolution:
		return "Application or table not found", "Check the application name with 'qbase whoami' and tables with 'qbase tables'"
	case quickbase.SchemaMismatch, quickbase.UnknownField:
		return "Field not found in the table schema", "List fields with 'qbase schema <table>'"
	case quickbase.UnsupportedOperator:
		return "Unsupported query operator", "Use one of >= > < <= contains ncontain is nis"
	case quickbase.Remote:
		return "QuickBase returned an error", ""
	case quickbase.TransportFailure:
		return "Cannot reach QuickBase", "Check your network connection and the configured host"
	default:
		return "Command failed", ""
	}
}

// PresentClientError prints FormatClientError surrounded by blank lines.
func PresentClientError(err error) {
	pterm.Println()
	pterm.Println(FormatClientError(err))
	pterm.Println()
}
