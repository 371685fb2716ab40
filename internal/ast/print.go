package ast

import "github.com/alecthomas/repr"

// Dump renders p as a repr-formatted string, used by the `nanoc ast`
// subcommand the way tawago's `typeinfo` command used repr.Println on
// a decoded value for ad-hoc inspection.
func Dump(p Program) string {
	return repr.String(p, repr.Indent("  "))
}
