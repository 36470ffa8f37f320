package mcpserver

import "github.com/starford/koinecards/internal/parser"

const fence = "```"

// CardFormatContract describes the card text format that every file listed
// in a deck manifest follows.
const CardFormatContract = `# Koine Cards Card Format

A card is a UTF-8 text file (` + "`.txt`" + `) listed in the deck's ` + "`index.json`" + `.

## Structure

` + fence + `text
Title line
` + parser.DomainPrefix + ` Domain name
` + parser.CardPrefix + ` card number or label          # OPTIONAL
` + parser.StatusPrefix + ` status                      # OPTIONAL
` + parser.DatePrefix + ` date                          # OPTIONAL
` + parser.Divider + `
Body text, shown as written.
` + fence + `

## Rules

1. The **title** is the first non-blank line of the file.
2. Header lines are recognised only when the prefix starts the line. The
   first occurrence of each header wins.
3. A card without a ` + "`" + parser.DomainPrefix + "`" + ` line belongs to the domain ` + "`Ἄγνωστος`" + `.
4. ` + "`" + parser.CardPrefix + "`" + `, ` + "`" + parser.StatusPrefix + "`" + ` and ` + "`" + parser.DatePrefix + "`" + ` values form the card's meta,
   one per line, in that order. Empty values are left out.
5. The **body** is everything after the first divider line, trimmed. Without
   a divider the whole trimmed file is the body.
6. Line endings may be LF or CRLF.
7. File names usually start with a number and an underscore (` + "`01_logos.txt`" + `);
   the part before the first underscore is shown as the card's badge.

## Manifest

` + fence + `json
{"files": ["01_logos.txt", "greek/02_agape.txt"]}
` + fence + `

Paths are relative to the manifest. Files that cannot be fetched are skipped.
`
