// Command fontinfo prints the table directory and a few summary fields
// of a TTF, OTF, TTC, WOFF, or WOFF2 font file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	font "github.com/dali-aq/font"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <file>\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	errLog := log.New(os.Stderr, "ERROR: ", 0)

	b, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		errLog.Fatal(err)
	}

	b, err = toSFNT(b)
	if err != nil {
		errLog.Fatal(err)
	}

	sfnt, err := font.ParseSFNT(b, 0)
	if err != nil {
		errLog.Fatal(err)
	}

	version := "TrueType"
	if sfnt.IsCFF {
		version = "CFF"
	}
	fmt.Printf("File: %s\n\n", flag.Arg(0))
	fmt.Printf("sfntVersion: %s (%s)\n", sfnt.Version, version)
	fmt.Printf("numGlyphs: %d\n", sfnt.NumGlyphs())
	if sfnt.Hhea != nil {
		fmt.Printf("numHMetrics: %d\n", sfnt.Hhea.NumberOfHMetrics)
	}
	fmt.Printf("\nTable directory:\n")

	tags := make([]string, 0, len(sfnt.Tables))
	for tag := range sfnt.Tables {
		tags = append(tags, tag)
	}
	for i := 1; i < len(tags); i++ {
		for j := i; 0 < j && tags[j-1] > tags[j]; j-- {
			tags[j-1], tags[j] = tags[j], tags[j-1]
		}
	}
	for _, tag := range tags {
		fmt.Printf("  %s  length=%d\n", tag, len(sfnt.Tables[tag]))
	}
}

// toSFNT converts a WOFF or WOFF2 input to its contained SFNT bytes,
// leaving a bare SFNT/TTC input untouched.
func toSFNT(b []byte) ([]byte, error) {
	if len(b) < 4 {
		return b, nil
	}
	switch string(b[:4]) {
	case "wOFF":
		return font.WOFFDecode(b)
	case "wOF2":
		return font.WOFF2Decode(b)
	default:
		return b, nil
	}
}
