package components

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rubiojr/sparks/cmd/web/components/types"
	"github.com/rubiojr/sparks/pkg/flickr"
	"github.com/rubiojr/sparks/pkg/inspire"
)

var titleCaser = cases.Title(language.English)

// TitleWord capitalizes a vocabulary word for headings.
func TitleWord(w string) string {
	return titleCaser.String(w)
}

// NewPhotoCard converts a photo for the templates. Untitled photos get a
// placeholder title.
func NewPhotoCard(p flickr.Photo) types.PhotoCard {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "Untitled"
	}
	return types.PhotoCard{
		ID:        p.ID,
		Title:     title,
		OwnerName: p.OwnerName,
		ImageURL:  p.URLLarge,
		PageURL:   p.PageURL(),
		Tags:      p.TagList(),
	}
}

func NewPhotoCards(photos []flickr.Photo) []types.PhotoCard {
	cards := make([]types.PhotoCard, len(photos))
	for i, p := range photos {
		cards[i] = NewPhotoCard(p)
	}
	return cards
}

// NewPanelData converts a panel snapshot for the templates.
func NewPanelData(snap inspire.Snapshot) types.PanelData {
	data := types.PanelData{
		Loading:    snap.Loading,
		Generation: snap.Generation,
		Words:      make([]types.WordCard, len(snap.Words)),
	}
	for i, w := range snap.Words {
		card := types.WordCard{
			Word:       w.Word,
			Label:      TitleWord(w.Word),
			Candidates: w.Candidates,
			CanReroll:  w.CanReroll(),
			Error:      w.Error,
		}
		if w.Photo != nil {
			pc := NewPhotoCard(*w.Photo)
			card.Photo = &pc
		}
		data.Words[i] = card
	}
	return data
}
