// Package interpolate substitutes context values into parameter templates.
//
// The token vocabulary is closed and case-sensitive:
//
//	{selectedCount}   number of selected records, as a decimal string
//	{recordTypeName}  logical name of the current record type
//	{parentRecordId}  identifier of the parent record, or ""
//	{parentTypeName}  type name of the parent record, or ""
//
// A known token whose context value is absent substitutes the empty string.
// Brace sequences that are not in the vocabulary are not tokens and pass
// through verbatim.
package interpolate

import (
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
)

// Params interpolates every string value in the template map. Non-string
// values pass through unchanged. The input map is never mutated.
func Params(template map[string]any, ec *command.ExecutionContext) map[string]any {
	if template == nil {
		return nil
	}
	out := make(map[string]any, len(template))
	for k, v := range template {
		if s, ok := v.(string); ok {
			out[k] = Expand(s, ec)
		} else {
			out[k] = v
		}
	}
	return out
}

// Expand substitutes all tokens in s in a single left-to-right pass.
// Substituted values are written to the output and never re-scanned, so a
// value containing '{' or '}' cannot trigger a second substitution.
func Expand(s string, ec *command.ExecutionContext) string {
	if !strings.ContainsRune(s, '{') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		ch := s[i]
		if ch != '{' {
			b.WriteByte(ch)
			i++
			continue
		}
		end := strings.IndexByte(s[i+1:], '}')
		if end < 0 {
			// No closing brace anywhere ahead; the rest is literal.
			b.WriteString(s[i:])
			break
		}
		name := s[i+1 : i+1+end]
		val, known := tokenValue(name, ec)
		if !known {
			b.WriteByte('{')
			i++
			continue
		}
		b.WriteString(val)
		i += end + 2
	}
	return b.String()
}

func tokenValue(name string, ec *command.ExecutionContext) (string, bool) {
	switch name {
	case "selectedCount":
		return strconv.Itoa(len(ec.SelectedRecords)), true
	case "recordTypeName":
		return ec.RecordTypeName, true
	case "parentRecordId":
		if ec.ParentRecord == nil {
			return "", true
		}
		return ec.ParentRecord.ID, true
	case "parentTypeName":
		if ec.ParentRecord == nil {
			return "", true
		}
		return ec.ParentRecord.TypeName, true
	}
	return "", false
}
