package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

func init() {
	// Register the listing lexer and style on package initialization
	_ = QVMDark
	_ = QVMLexer
}

// QVMLexer tokenises qvmdis listings: ordinals, mnemonics, operands, recovered
// strings, data words and // comments.
var QVMLexer = lexers.Register(chroma.MustNewLexer(
	&chroma.Config{
		Name:      "qvm",
		Aliases:   []string{"qvmdis"},
		Filenames: []string{"*.dis"},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `/\*.*?\*/`, Type: chroma.CommentMultiline},
				{Pattern: `//.*$`, Type: chroma.Comment},
				{Pattern: `"(\\.|[^"\\])*"`, Type: chroma.LiteralString},
				{Pattern: `^=+$`, Type: chroma.Punctuation},
				{Pattern: `^[A-Za-z_][\w]* \(\)$`, Type: chroma.NameFunction},
				{Pattern: `^[0-9a-f]{8}\b`, Type: chroma.NameLabel},
				{Pattern: `[-+]?0x[0-9a-fA-F]+`, Type: chroma.LiteralNumberHex},
				{Pattern: `\b[0-9a-f]{2}\b`, Type: chroma.LiteralNumberHex},
				{Pattern: `\b[a-z][a-z0-9_]*\b`, Type: chroma.Keyword},
				{Pattern: `[()]`, Type: chroma.Punctuation},
				{Pattern: `\s+`, Type: chroma.Text},
				{Pattern: `.`, Type: chroma.Text},
			},
		}
	},
))

// QVMDark is the listing color scheme
var QVMDark = styles.Register(chroma.MustNewStyle("qvm-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",    // Default text white
	chroma.Background: "bg:#1e1e1e", // Dark background

	chroma.Comment:          "#6A9955", // Symbol annotations in green
	chroma.CommentMultiline: "#858585", // Section markers in gray

	chroma.Keyword:   "#FFFFFF", // Mnemonics in white
	chroma.NameLabel: "#4F4F4F", // Ordinals in gray

	chroma.LiteralNumberHex: "#FF5F87", // Operands and data bytes in pink

	chroma.NameFunction: "#FFD700", // Function banners in gold
	chroma.Punctuation:  "#858585",

	chroma.LiteralString: "#EACD53", // Strings in golden (234, 205, 83)
}))
