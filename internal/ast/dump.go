package ast

import (
	"io"

	"github.com/sanity-io/litter"
)

var dumpOptions = litter.Options{
	StripPackageNames: true,
	HidePrivateFields: false,
	HideZeroValues:    true,
	Separator:         " ",
}

// Sdump renders nodes and their children for debugging.
func Sdump(v ...any) string {
	return dumpOptions.Sdump(v...)
}

func Dump(w io.Writer, node Node) error {
	_, err := io.WriteString(w, Sdump(node)+"\n")
	return err
}
