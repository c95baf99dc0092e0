package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
)

// TextRenderer renders a Report as an aligned terminal table.
type TextRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
)

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bandColor(b Band) string {
	switch b {
	case BandGood:
		return colorGreen
	case BandFair:
		return colorYellow
	default:
		return colorRed
	}
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (r *TextRenderer) Render(w io.Writer, rep Report) error {
	if _, err := fmt.Fprintf(w, "%s %s\n\n",
		colored(fmt.Sprintf("Compatibility: %.2f", rep.Compatibility), colorBold),
		colored("("+string(rep.Band)+")", bandColor(rep.Band))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Male:   %s\nFemale: %s\n\n", rep.Male.Label, rep.Female.Label); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRAIT\tMALE\tFEMALE\tDIFFERENCE")
	for _, row := range rep.Comparison {
		male, female := row.Male, row.Female
		if row.MaleValue != nil {
			male = fmt.Sprintf("%s (%s)", male, num(*row.MaleValue))
		}
		if row.FemaleValue != nil {
			female = fmt.Sprintf("%s (%s)", female, num(*row.FemaleValue))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Trait, male, female, num(row.Difference))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nWeighted sum: %s  Target weight: %s g\n", num(rep.WeightedSum), num(rep.TargetWeight))
	return err
}
