package web

import (
	"html/template"

	"chainexplorer/internal/format"
)

var funcs = template.FuncMap{
	"truncateHash":    format.TruncateHash,
	"shortAddress":    format.ShortAddress,
	"formatEther":     format.FormatEther,
	"formatGwei":      format.FormatGwei,
	"formatTimestamp": format.FormatTimestamp,
	"timeAgo":         format.TimeAgo,
	"comma":           format.Comma,
	"bigComma":        format.BigComma,
	"placeholder":     func() string { return format.Placeholder },
	"derefString": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}
