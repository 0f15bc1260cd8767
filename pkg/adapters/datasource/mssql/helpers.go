package mssql

import (
	"fmt"
	"strings"
)

// quoteName mirrors SQL Server's QUOTENAME(): square brackets, with ] escaped as ]].
func quoteName(identifier string) string {
	escaped := strings.ReplaceAll(identifier, "]", "]]")
	return fmt.Sprintf("[%s]", escaped)
}
