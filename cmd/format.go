package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rubiojr/sparks/pkg/display"
	"github.com/rubiojr/sparks/pkg/flickr"
	"github.com/rubiojr/sparks/pkg/inspire"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	photoStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	titleCaser = cases.Title(language.English)
)

// titleWord capitalizes a vocabulary word for display.
func titleWord(w string) string {
	return titleCaser.String(w)
}

func formatPhoto(p flickr.Photo) string {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "Untitled"
	}
	lines := []string{headerStyle.Render(title)}
	if p.OwnerName != "" {
		lines = append(lines, metaStyle.Render("by "+p.OwnerName))
	}
	if tags := p.TagList(); len(tags) > 0 {
		if len(tags) > 8 {
			tags = append(tags[:8], "…")
		}
		lines = append(lines, metaStyle.Render("tags: "+strings.Join(tags, " ")))
	}
	lines = append(lines, urlStyle.Render(p.PageURL()), urlStyle.Render(p.URLLarge))
	return photoStyle.Render(strings.Join(lines, "\n"))
}

// printSearchState renders a settled search for the terminal.
func printSearchState(w io.Writer, st display.State) {
	switch st.Phase {
	case display.PhaseUnconfigured, display.PhaseError:
		fmt.Fprintln(w, errorStyle.Render(st.Message()))
	case display.PhaseEmpty:
		fmt.Fprintln(w, noDataStyle.Render(st.Message()))
	case display.PhaseResults:
		res := st.Result
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d photos for %q %s", len(res.Photos), res.Query, display.SourcePhrase(res))))
		for _, p := range res.Photos {
			fmt.Fprintln(w, formatPhoto(p))
		}
	}
}

// printPanel renders the inspiration panel for the terminal.
func printPanel(w io.Writer, snap inspire.Snapshot) {
	words := make([]string, len(snap.Words))
	for i, v := range snap.Words {
		words[i] = titleWord(v.Word)
	}
	fmt.Fprintln(w, titleStyle.Render("Inspiration: "+strings.Join(words, " · ")))

	for _, v := range snap.Words {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d candidates)", titleWord(v.Word), v.Candidates)))
		switch {
		case v.Photo != nil:
			fmt.Fprintln(w, formatPhoto(*v.Photo))
		case v.Error != "":
			fmt.Fprintln(w, noDataStyle.Render("Could not fetch photos: "+v.Error))
		default:
			fmt.Fprintln(w, noDataStyle.Render("No photos found"))
		}
	}
}
